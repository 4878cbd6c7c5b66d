package services

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidID          = errors.New("invalid id")
	ErrUnavailable        = errors.New("food item is not available")
	ErrNoSession          = errors.New("no user or guest session")
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrMissingDelivery    = errors.New("please provide delivery address and phone number")
	ErrLoginRequired      = errors.New("you need to be logged in to place an order")
	ErrInvalidTransition  = errors.New("order status transition not allowed")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("email not verified")
)
