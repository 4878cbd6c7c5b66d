package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud-kitchen/models"
	"cloud-kitchen/notify"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckoutRequest carries the delivery details. Empty address or phone
// fall back to the customer's profile.
type CheckoutRequest struct {
	DeliveryAddress string `json:"delivery_address"`
	Phone           string `json:"phone"`
	Notes           string `json:"notes"`
}

// CheckoutService turns a signed-in cart into an order.
type CheckoutService struct {
	users  UserStore
	carts  *CartService
	orders OrderStore
	events Publisher
	mailer OrderMailer
	log    *logrus.Entry
}

func NewCheckoutService(users UserStore, carts *CartService, orders OrderStore, events Publisher, mailer OrderMailer, log *logrus.Entry) *CheckoutService {
	return &CheckoutService{users: users, carts: carts, orders: orders, events: events, mailer: mailer, log: log}
}

// PlaceOrder validates everything before writing. The order, its items and
// the cleared cart are stored in one transaction by the OrderStore.
func (s *CheckoutService) PlaceOrder(ctx context.Context, sess Session, req CheckoutRequest) (*models.Order, error) {
	if !sess.SignedIn() {
		return nil, ErrLoginRequired
	}
	user, err := s.users.UserByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	address := strings.TrimSpace(req.DeliveryAddress)
	if address == "" {
		address = strings.TrimSpace(user.Profile.Address)
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		phone = strings.TrimSpace(user.Profile.Phone)
	}
	if address == "" || phone == "" {
		return nil, ErrMissingDelivery
	}

	cart, err := s.carts.For(sess)
	if err != nil {
		return nil, err
	}
	lines, err := cart.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	order := &models.Order{
		UserID:          sess.UserID,
		Status:          models.StatusPending,
		DeliveryAddress: address,
		Phone:           phone,
		Notes:           strings.TrimSpace(req.Notes),
	}
	for _, l := range lines {
		foodID, err := primitive.ObjectIDFromHex(l.ID)
		if err != nil {
			return nil, fmt.Errorf("cart line %q: %w", l.ID, ErrInvalidID)
		}
		order.Items = append(order.Items, models.OrderItem{
			FoodItemID: foodID,
			Name:       l.Food.Name,
			Quantity:   l.Quantity,
			Price:      l.Food.Price,
		})
	}
	order.TotalAmount = models.CartTotal(lines)

	if err := s.orders.PlaceOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"order_id": order.ID.Hex(),
		"user_id":  sess.UserID.Hex(),
		"items":    len(order.Items),
		"total":    order.TotalAmount.String(),
	}).Info("Order placed")

	s.events.Publish(notify.Event{Type: notify.OrderCreated, OrderID: order.ID.Hex(), Status: order.Status, At: time.Now().UTC()})

	go func(email string, o models.Order) {
		if err := s.mailer.SendOrderConfirmationEmail(email, &o); err != nil {
			s.log.WithError(err).WithField("order_id", o.ID.Hex()).Warn("Failed to send order confirmation")
		}
	}(user.Email, *order)

	return order, nil
}
