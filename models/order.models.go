package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// position along the fulfilment path; cancelled is off the path.
var statusRank = map[OrderStatus]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusPreparing: 2,
	StatusReady:     3,
	StatusDelivered: 4,
}

var statusColor = map[OrderStatus]string{
	StatusPending:   "bg-yellow-500",
	StatusConfirmed: "bg-blue-500",
	StatusPreparing: "bg-purple-500",
	StatusReady:     "bg-green-500",
	StatusDelivered: "bg-green-700",
	StatusCancelled: "bg-red-500",
}

// ParseOrderStatus accepts the canonical names plus "completed" as an alias of delivered.
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if st == "completed" {
		return StatusDelivered, nil
	}
	if _, ok := statusRank[st]; ok || st == StatusCancelled {
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo allows forward moves along the fulfilment path and cancellation
// of any order that is not yet terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() || s == next {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	cur, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	return ok && to > cur
}

// Color is the badge class used by order views.
func (s OrderStatus) Color() string {
	if c, ok := statusColor[s]; ok {
		return c
	}
	return "bg-gray-500"
}

// Order represents a placed order header
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"user_id" json:"user_id"`
	Status          OrderStatus        `bson:"status" json:"status"`
	TotalAmount     Money              `bson:"total_amount" json:"total_amount"`
	DeliveryAddress string             `bson:"delivery_address" json:"delivery_address"`
	Phone           string             `bson:"phone" json:"phone"`
	Notes           string             `bson:"notes" json:"notes"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
	Items           []OrderItem        `bson:"-" json:"order_items"`
}

// OrderItem is a purchased line; Price is the unit price frozen at checkout.
type OrderItem struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID    primitive.ObjectID `bson:"order_id" json:"order_id"`
	FoodItemID primitive.ObjectID `bson:"food_item_id" json:"food_item_id"`
	Name       string             `bson:"name" json:"name"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Price      Money              `bson:"price" json:"price"`
}

func (i OrderItem) Subtotal() Money {
	return i.Price.Mul(i.Quantity)
}

// ItemsTotal recomputes the total from the captured item prices.
func (o *Order) ItemsTotal() Money {
	total := Money{}
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}
