// controllers/order.go
package controllers

import (
	"net/http"

	"cloud-kitchen/services"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// OrderController handles checkout, order history and the admin order panel
type OrderController struct {
	Checkout *services.CheckoutService
	Orders   *services.OrderService
	Log      *logrus.Entry
}

// NewOrderController creates a new OrderController
func NewOrderController(checkout *services.CheckoutService, orders *services.OrderService, log *logrus.Entry) *OrderController {
	return &OrderController{Checkout: checkout, Orders: orders, Log: log}
}

// CreateOrder places an order from the signed-in user's cart
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil {
		respondError(w, r, oc.Log, err)
		return
	}
	var req services.CheckoutRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	order, err := oc.Checkout.PlaceOrder(ctx, sess, req)
	if err != nil {
		respondError(w, r, oc.Log, err)
		return
	}
	respondJSON(w, http.StatusCreated, services.OrderView{Order: *order, StatusColor: order.Status.Color()})
}

// GetOrders lists the signed-in user's orders, newest first
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	sess, err := sessionFrom(r)
	if err != nil || !sess.SignedIn() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	orders, err := oc.Orders.MyOrders(ctx, sess.UserID)
	if err != nil {
		respondError(w, r, oc.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GetAllOrders lists every order, optionally filtered by ?status= (Admin only)
func (oc *OrderController) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r)
	defer cancel()

	orders, err := oc.Orders.AllOrders(ctx, r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, r, oc.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus moves an order to a new status (Admin only)
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx, cancel := withTimeout(r)
	defer cancel()

	order, err := oc.Orders.UpdateStatus(ctx, mux.Vars(r)["id"], req.Status)
	if err != nil {
		respondError(w, r, oc.Log, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
