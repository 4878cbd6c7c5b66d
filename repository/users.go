package repository

import (
	"context"

	"cloud-kitchen/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	_, err := s.users.InsertOne(ctx, u)
	return translate(err)
}

func (s *MongoStore) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *MongoStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) UserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, models.ErrNotFound
	}
	return s.findUser(ctx, bson.M{"verification_token": token})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *MongoStore) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	return s.setUser(ctx, id, bson.M{"is_verified": true, "verification_token": ""})
}

func (s *MongoStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.Profile) error {
	return s.setUser(ctx, id, bson.M{"profile": p})
}

func (s *MongoStore) setUser(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
