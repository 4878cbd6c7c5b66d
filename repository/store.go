// Package repository stores the catalog, carts, orders and users in MongoDB.
package repository

import (
	"context"
	"errors"
	"fmt"

	"cloud-kitchen/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	FoodItemsCollection  = "food_items"
	CategoriesCollection = "categories"
	CartItemsCollection  = "cart_items"
	OrdersCollection     = "orders"
	OrderItemsCollection = "order_items"
	UsersCollection      = "users"
)

// MongoStore implements the service stores on one database.
type MongoStore struct {
	client     *mongo.Client
	foods      *mongo.Collection
	categories *mongo.Collection
	cart       *mongo.Collection
	orders     *mongo.Collection
	orderItems *mongo.Collection
	users      *mongo.Collection
	log        *logrus.Entry
}

func NewMongoStore(client *mongo.Client, database string, log *logrus.Entry) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:     client,
		foods:      db.Collection(FoodItemsCollection),
		categories: db.Collection(CategoriesCollection),
		cart:       db.Collection(CartItemsCollection),
		orders:     db.Collection(OrdersCollection),
		orderItems: db.Collection(OrderItemsCollection),
		users:      db.Collection(UsersCollection),
		log:        log,
	}
}

// Orders exposes the orders collection for the change stream watcher.
func (s *MongoStore) OrdersCollection() *mongo.Collection {
	return s.orders
}

// EnsureIndexes creates the indexes the stores rely on. It is idempotent.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "verification_token", Value: 1}}}},
		{s.cart, mongo.IndexModel{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "food_item_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.foods, mongo.IndexModel{Keys: bson.D{{Key: "category_id", Value: 1}}}},
		{s.foods, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}}},
		{s.categories, mongo.IndexModel{Keys: bson.D{{Key: "display_order", Value: 1}}}},
		{s.orders, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}}},
		{s.orders, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}}},
		{s.orderItems, mongo.IndexModel{Keys: bson.D{{Key: "order_id", Value: 1}}}},
	}
	for _, ix := range indexes {
		name, err := ix.coll.Indexes().CreateOne(ctx, ix.model)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", ix.coll.Name(), err)
		}
		s.log.WithFields(logrus.Fields{"collection": ix.coll.Name(), "index": name}).Debug("Index ensured")
	}
	return nil
}

// translate maps driver errors onto the model errors the services check.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", models.ErrDuplicate, err)
	default:
		return err
	}
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]T, error) {
	defer cur.Close(ctx)
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
