package models

import "errors"

var (
	// ErrNotFound is returned by every store when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate key")
	// ErrStatusConflict means the order status changed under a compare-and-set update.
	ErrStatusConflict = errors.New("order status changed concurrently")
)
