package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile holds the delivery details a customer keeps on file.
type Profile struct {
	FullName string `bson:"full_name" json:"full_name"`
	Address  string `bson:"address" json:"address"`
	Phone    string `bson:"phone" json:"phone"`
}

// User represents a user in the system
type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	Password          string             `bson:"password,omitempty" json:"-"`
	Role              string             `bson:"role" json:"role"` // "user" or "admin"
	IsVerified        bool               `bson:"is_verified" json:"is_verified"`
	VerificationToken string             `bson:"verification_token" json:"-"`
	Profile           Profile            `bson:"profile" json:"profile"`
}

// DisplayName falls back from the profile name to the account name to the email.
func (u User) DisplayName() string {
	switch {
	case u.Profile.FullName != "":
		return u.Profile.FullName
	case u.Name != "":
		return u.Name
	default:
		return u.Email
	}
}
