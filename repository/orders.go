package repository

import (
	"context"
	"fmt"
	"time"

	"cloud-kitchen/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PlaceOrder writes the order header and its items and takes the ordered
// quantities off the cart in one multi-document transaction. It needs a
// replica set.
func (s *MongoStore) PlaceOrder(ctx context.Context, order *models.Order) error {
	now := time.Now().UTC()
	order.ID = primitive.NewObjectID()
	order.CreatedAt, order.UpdatedAt = now, now
	docs := make([]interface{}, len(order.Items))
	for i := range order.Items {
		order.Items[i].ID = primitive.NewObjectID()
		order.Items[i].OrderID = order.ID
		docs[i] = order.Items[i]
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := s.orders.InsertOne(sc, order); err != nil {
			return nil, fmt.Errorf("insert order: %w", err)
		}
		if len(docs) > 0 {
			if _, err := s.orderItems.InsertMany(sc, docs); err != nil {
				return nil, fmt.Errorf("insert order items: %w", err)
			}
		}
		// take only the ordered quantities off the cart
		for _, it := range order.Items {
			filter := bson.M{"user_id": order.UserID, "food_item_id": it.FoodItemID}
			if _, err := s.cart.UpdateOne(sc, filter, bson.M{"$inc": bson.M{"quantity": -it.Quantity}}); err != nil {
				return nil, fmt.Errorf("consume cart row: %w", err)
			}
		}
		res, err := s.cart.DeleteMany(sc, bson.M{"user_id": order.UserID, "quantity": bson.M{"$lte": 0}})
		if err != nil {
			return nil, fmt.Errorf("clear cart: %w", err)
		}
		return res.DeletedCount, nil
	})
	if err != nil {
		s.log.WithError(err).WithField("order_id", order.ID.Hex()).Error("Order transaction rolled back")
		return err
	}
	return nil
}

func (s *MongoStore) OrdersByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.findOrders(ctx, bson.M{"user_id": userID})
}

func (s *MongoStore) Orders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.findOrders(ctx, filter)
}

// findOrders loads matching headers newest first and attaches their items.
func (s *MongoStore) findOrders(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	orders, err := decodeAll[models.Order](ctx, cur)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]primitive.ObjectID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	cur, err = s.orderItems.Find(ctx, bson.M{"order_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	items, err := decodeAll[models.OrderItem](ctx, cur)
	if err != nil {
		return nil, err
	}
	byOrder := make(map[primitive.ObjectID][]models.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return orders, nil
}

func (s *MongoStore) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, translate(err)
	}
	cur, err := s.orderItems.Find(ctx, bson.M{"order_id": id})
	if err != nil {
		return nil, err
	}
	if order.Items, err = decodeAll[models.OrderItem](ctx, cur); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus only matches while the stored status is still from.
func (s *MongoStore) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) error {
	res, err := s.orders.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	n, err := s.orders.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	s.log.WithFields(logrus.Fields{"order_id": id.Hex(), "expected": from}).Warn("Order status changed concurrently")
	return models.ErrStatusConflict
}
