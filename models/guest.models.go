package models

import "time"

// GuestSession scopes the state of an unauthenticated visitor.
type GuestSession struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s GuestSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
