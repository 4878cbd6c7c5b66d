package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartRow is a signed-in user's cart entry, one document per (user, food item).
type CartRow struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	FoodItemID primitive.ObjectID `bson:"food_item_id" json:"food_item_id"`
	Quantity   int                `bson:"quantity" json:"quantity"`
}

// GuestCartEntry is one position of a guest cart.
type GuestCartEntry struct {
	FoodItemID string `db:"food_item_id" json:"food_item_id"`
	Quantity   int    `db:"quantity" json:"quantity"`
}

// FoodSnapshot is the part of a food item shown next to a cart line.
type FoodSnapshot struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    Money  `json:"price"`
	ImageURL string `json:"image_url"`
}

// CartLine is a cart entry joined with its food item. ID is the food item id.
type CartLine struct {
	ID       string       `json:"id"`
	Quantity int          `json:"quantity"`
	Food     FoodSnapshot `json:"food_items"`
}

func (l CartLine) Subtotal() Money {
	return l.Food.Price.Mul(l.Quantity)
}

// CartTotal sums unit price times quantity over all lines.
func CartTotal(lines []CartLine) Money {
	total := Money{}
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Snapshot copies the cart-visible fields of a food item.
func (f FoodItem) Snapshot() FoodSnapshot {
	return FoodSnapshot{
		ID:       f.ID.Hex(),
		Name:     f.Name,
		Price:    f.Price,
		ImageURL: f.ImageURL,
	}
}
