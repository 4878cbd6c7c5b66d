package repository

import (
	"context"

	"cloud-kitchen/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *MongoStore) ListFoods(ctx context.Context) ([]models.FoodItem, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetCollation(&options.Collation{Locale: "en", Strength: 2})
	cur, err := s.foods.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.FoodItem](ctx, cur)
}

func (s *MongoStore) GetFood(ctx context.Context, id primitive.ObjectID) (*models.FoodItem, error) {
	var item models.FoodItem
	if err := s.foods.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *MongoStore) FoodsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.FoodItem, error) {
	cur, err := s.foods.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	return decodeAll[models.FoodItem](ctx, cur)
}

func (s *MongoStore) CreateFood(ctx context.Context, item *models.FoodItem) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	_, err := s.foods.InsertOne(ctx, item)
	return translate(err)
}

func (s *MongoStore) UpdateFood(ctx context.Context, item *models.FoodItem) error {
	res, err := s.foods.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteFood(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.foods.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *MongoStore) ClearFoodCategory(ctx context.Context, categoryID primitive.ObjectID) error {
	_, err := s.foods.UpdateMany(ctx,
		bson.M{"category_id": categoryID},
		bson.M{"$set": bson.M{"category_id": nil}},
	)
	return err
}

func (s *MongoStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "display_order", Value: 1}, {Key: "name", Value: 1}})
	cur, err := s.categories.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Category](ctx, cur)
}

func (s *MongoStore) GetCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var c models.Category
	if err := s.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *MongoStore) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := s.categories.InsertOne(ctx, c)
	return translate(err)
}

func (s *MongoStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	res, err := s.categories.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteCategory(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.categories.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
