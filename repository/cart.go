package repository

import (
	"context"
	"errors"

	"cloud-kitchen/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *MongoStore) CartRows(ctx context.Context, userID primitive.ObjectID) ([]models.CartRow, error) {
	// _id order is insertion order
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.cart.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.CartRow](ctx, cur)
}

// IncrementCartRow uses $inc so concurrent adds are both counted.
func (s *MongoStore) IncrementCartRow(ctx context.Context, userID, foodID primitive.ObjectID, delta int, upsert bool) (int, error) {
	filter := bson.M{"user_id": userID, "food_item_id": foodID}
	update := bson.M{"$inc": bson.M{"quantity": delta}}
	opts := options.FindOneAndUpdate().SetUpsert(upsert).SetReturnDocument(options.After)

	var row models.CartRow
	err := s.cart.FindOneAndUpdate(ctx, filter, update, opts).Decode(&row)
	if upsert && mongo.IsDuplicateKeyError(err) {
		// two upserts raced on the unique index; the row exists now
		err = s.cart.FindOneAndUpdate(ctx, filter, update, opts).Decode(&row)
	}
	if err != nil {
		return 0, translate(err)
	}
	return row.Quantity, nil
}

func (s *MongoStore) DeleteCartRow(ctx context.Context, userID, foodID primitive.ObjectID) error {
	res, err := s.cart.DeleteOne(ctx, bson.M{"user_id": userID, "food_item_id": foodID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// PruneCartRow deletes the row only while its quantity is not positive, so an
// add that lands after the decrement keeps the row.
func (s *MongoStore) PruneCartRow(ctx context.Context, userID, foodID primitive.ObjectID) error {
	_, err := s.cart.DeleteOne(ctx, bson.M{
		"user_id":      userID,
		"food_item_id": foodID,
		"quantity":     bson.M{"$lte": 0},
	})
	return err
}

func (s *MongoStore) ClearCart(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.cart.DeleteMany(ctx, bson.M{"user_id": userID})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return err
}
