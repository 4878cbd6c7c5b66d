package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud-kitchen/models"
	"cloud-kitchen/notify"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderView is an order as shown in order lists, with its badge color.
type OrderView struct {
	models.Order
	StatusColor string `json:"status_color"`
}

func viewOf(orders []models.Order) []OrderView {
	out := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderView{Order: o, StatusColor: o.Status.Color()})
	}
	return out
}

// OrderService backs the order history and the admin order panel.
type OrderService struct {
	orders OrderStore
	users  UserStore
	events Publisher
	mailer OrderMailer
	log    *logrus.Entry
}

func NewOrderService(orders OrderStore, users UserStore, events Publisher, mailer OrderMailer, log *logrus.Entry) *OrderService {
	return &OrderService{orders: orders, users: users, events: events, mailer: mailer, log: log}
}

// MyOrders lists the user's orders, newest first.
func (s *OrderService) MyOrders(ctx context.Context, userID primitive.ObjectID) ([]OrderView, error) {
	orders, err := s.orders.OrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	return viewOf(orders), nil
}

// AllOrders lists every order; status "" or "all" disables the filter.
func (s *OrderService) AllOrders(ctx context.Context, status string) ([]OrderView, error) {
	var st models.OrderStatus
	if status != "" && status != "all" {
		parsed, err := models.ParseOrderStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		st = parsed
	}
	orders, err := s.orders.Orders(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return viewOf(orders), nil
}

// UpdateStatus moves an order along its lifecycle and notifies the customer.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*OrderView, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	order, err := s.orders.GetOrder(ctx, oid)
	if err != nil {
		return nil, err
	}
	prev := order.Status
	if !prev.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, prev, next)
	}
	if err := s.orders.UpdateOrderStatus(ctx, oid, prev, next); err != nil {
		if errors.Is(err, models.ErrStatusConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = next
	order.UpdatedAt = time.Now().UTC()

	s.log.WithFields(logrus.Fields{"order_id": id, "from": prev, "to": next}).Info("Order status updated")
	s.events.Publish(notify.Event{Type: notify.OrderUpdated, OrderID: id, Status: next, At: order.UpdatedAt})

	if user, err := s.users.UserByID(ctx, order.UserID); err == nil {
		go func(u models.User, o models.Order) {
			if err := s.mailer.SendOrderStatusEmail(u.Email, u.DisplayName(), &o); err != nil {
				s.log.WithError(err).WithField("order_id", o.ID.Hex()).Warn("Failed to send status email")
			}
		}(*user, *order)
	} else {
		s.log.WithError(err).WithField("order_id", id).Warn("Order owner not found, skipping status email")
	}

	return &OrderView{Order: *order, StatusColor: next.Color()}, nil
}
