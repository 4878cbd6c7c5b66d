package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FoodType separates ready meals from meal kits.
type FoodType string

const (
	FoodTypeCooked      FoodType = "cooked"
	FoodTypeReadyToCook FoodType = "ready_to_cook"
)

func (t FoodType) Valid() bool {
	return t == FoodTypeCooked || t == FoodTypeReadyToCook
}

// FoodItem represents a purchasable menu entry
type FoodItem struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Description  string              `bson:"description" json:"description"`
	Price        Money               `bson:"price" json:"price"`
	ImageURL     string              `bson:"image_url" json:"image_url"`
	Available    bool                `bson:"available" json:"available"`
	Type         FoodType            `bson:"food_type" json:"food_type"`
	CategoryID   *primitive.ObjectID `bson:"category_id" json:"category_id"`
	CategoryName string              `bson:"-" json:"category_name,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `bson:"updated_at" json:"updated_at"`
}

// Category groups food items on the menu. DisplayOrder is only used for sorting.
type Category struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description" json:"description"`
	DisplayOrder int                `bson:"display_order" json:"display_order"`
}
