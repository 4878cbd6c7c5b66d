package controllers

import (
	"net/http"

	"cloud-kitchen/models"
	"cloud-kitchen/services"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// CartController handles cart-related requests for users and guests
type CartController struct {
	Carts *services.CartService
	Log   *logrus.Entry
}

// NewCartController creates a new CartController
func NewCartController(carts *services.CartService, log *logrus.Entry) *CartController {
	return &CartController{Carts: carts, Log: log}
}

type cartResponse struct {
	Items []models.CartLine `json:"items"`
	Total models.Money      `json:"total"`
}

func (cc *CartController) cart(w http.ResponseWriter, r *http.Request) (services.Cart, bool) {
	sess, err := sessionFrom(r)
	if err == nil {
		var cart services.Cart
		if cart, err = cc.Carts.For(sess); err == nil {
			return cart, true
		}
	}
	respondError(w, r, cc.Log, err)
	return nil, false
}

func (cc *CartController) writeCart(w http.ResponseWriter, r *http.Request, cart services.Cart) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	lines, err := cart.List(ctx)
	if err != nil {
		respondError(w, r, cc.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse{Items: lines, Total: models.CartTotal(lines)})
}

// GetCart retrieves the caller's cart with its total
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := cc.cart(w, r)
	if !ok {
		return
	}
	cc.writeCart(w, r, cart)
}

// AddToCart adds one unit of a food item
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FoodItemID string `json:"food_item_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	cart, ok := cc.cart(w, r)
	if !ok {
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	if err := cart.Add(ctx, req.FoodItemID); err != nil {
		respondError(w, r, cc.Log, err)
		return
	}
	cc.writeCart(w, r, cart)
}

// UpdateQuantity adjusts a line by a signed delta; lines at zero are removed
func (cc *CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	cart, ok := cc.cart(w, r)
	if !ok {
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	if err := cart.SetQuantity(ctx, mux.Vars(r)["id"], req.Delta); err != nil {
		respondError(w, r, cc.Log, err)
		return
	}
	cc.writeCart(w, r, cart)
}

// RemoveFromCart removes a food item from the cart
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := cc.cart(w, r)
	if !ok {
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	if err := cart.Remove(ctx, mux.Vars(r)["id"]); err != nil {
		respondError(w, r, cc.Log, err)
		return
	}
	cc.writeCart(w, r, cart)
}

// MergeCart moves the guest cart into the signed-in user's cart on request.
func (cc *CartController) MergeCart(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		respondError(w, r, cc.Log, err)
		return
	}
	if !sess.SignedIn() {
		respondError(w, r, cc.Log, services.ErrLoginRequired)
		return
	}
	if sess.GuestID == "" {
		http.Error(w, "X-Guest-Session header required", http.StatusBadRequest)
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	if _, err := cc.Carts.Merge(ctx, sess.GuestID, sess.UserID); err != nil {
		respondError(w, r, cc.Log, err)
		return
	}
	cart, err := cc.Carts.For(sess)
	if err != nil {
		respondError(w, r, cc.Log, err)
		return
	}
	cc.writeCart(w, r, cart)
}
