package services

import (
	"context"
	"time"

	"cloud-kitchen/models"
	"cloud-kitchen/notify"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FoodStore persists food items. ListFoods is sorted by name.
type FoodStore interface {
	ListFoods(ctx context.Context) ([]models.FoodItem, error)
	GetFood(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error)
	FoodsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.FoodItem, error)
	CreateFood(ctx context.Context, item *models.FoodItem) error
	UpdateFood(ctx context.Context, item *models.FoodItem) error
	DeleteFood(ctx context.Context, id primitive.ObjectID) error
	ClearFoodCategory(ctx context.Context, categoryID primitive.ObjectID) error
}

// CategoryStore persists categories. ListCategories is sorted by display order.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error
}

// CartStore persists signed-in carts as one row per (user, food item).
type CartStore interface {
	CartRows(ctx context.Context, userID primitive.ObjectID) ([]models.CartRow, error)
	// IncrementCartRow adds delta atomically and returns the new quantity.
	// With upsert false a missing row yields models.ErrNotFound.
	IncrementCartRow(ctx context.Context, userID, foodID primitive.ObjectID, delta int, upsert bool) (int, error)
	DeleteCartRow(ctx context.Context, userID, foodID primitive.ObjectID) error
	// PruneCartRow deletes the row only if its quantity is zero or below.
	PruneCartRow(ctx context.Context, userID, foodID primitive.ObjectID) error
	ClearCart(ctx context.Context, userID primitive.ObjectID) error
}

// OrderStore persists order headers and their items.
type OrderStore interface {
	// PlaceOrder inserts the header and items and subtracts each item's quantity
	// from the user's cart rows, dropping rows that reach zero, all or nothing.
	// Rows added after the cart was read survive. It assigns ids and timestamps.
	PlaceOrder(ctx context.Context, order *models.Order) error
	OrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	// Orders lists every order, newest first; an empty status means all.
	Orders(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	// UpdateOrderStatus sets to only if the current status is still from.
	UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) error
}

// UserStore persists accounts and profiles.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UserByVerificationToken(ctx context.Context, token string) (*models.User, error)
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.Profile) error
}

// GuestStore keeps guest sessions and their ordered cart entries.
type GuestStore interface {
	CreateSession(ctx context.Context, s models.GuestSession) error
	// Session returns models.ErrNotFound for unknown or expired sessions.
	Session(ctx context.Context, id string, now time.Time) (*models.GuestSession, error)
	DeleteSession(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	Entries(ctx context.Context, sessionID string) ([]models.GuestCartEntry, error)
	SaveEntries(ctx context.Context, sessionID string, entries []models.GuestCartEntry) error
}

// Publisher receives order change events.
type Publisher interface {
	Publish(e notify.Event) notify.Event
}

// OrderMailer sends order emails.
type OrderMailer interface {
	SendOrderConfirmationEmail(toEmail string, order *models.Order) error
	SendOrderStatusEmail(toEmail, name string, order *models.Order) error
}

// VerificationMailer sends account verification emails.
type VerificationMailer interface {
	Enabled() bool
	SendVerificationEmail(toEmail, token string) error
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}
