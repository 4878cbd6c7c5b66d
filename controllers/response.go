package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"cloud-kitchen/middleware"
	"cloud-kitchen/models"
	"cloud-kitchen/services"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// requestTimeout bounds the store work of a single request.
const requestTimeout = 10 * time.Second

func withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return withTimeoutOf(r, requestTimeout)
}

func withTimeoutOf(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for requests whose body may be empty,
// including chunked bodies with no declared length.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return false
	}
	return true
}

// respondError maps service errors to status codes. Unknown errors are logged
// and hidden behind a 500.
func respondError(w http.ResponseWriter, r *http.Request, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidID),
		errors.Is(err, services.ErrUnavailable),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrMissingDelivery):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrLoginRequired),
		errors.Is(err, services.ErrNoSession),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrNotVerified):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, services.ErrUserExists),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, models.ErrStatusConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, context.DeadlineExceeded):
		log.WithError(err).WithField("request_id", middleware.RequestIDFromContext(r.Context())).Warn("Request timed out")
		http.Error(w, "Request timed out", http.StatusGatewayTimeout)
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.RequestIDFromContext(r.Context()),
			"path":       r.URL.Path,
		}).Error("Request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// sessionFrom builds the acting session from the auth and guest middleware.
func sessionFrom(r *http.Request) (services.Session, error) {
	var sess services.Session
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		oid, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			return sess, services.ErrLoginRequired
		}
		sess.UserID = oid
	}
	if guest, ok := middleware.GuestFromContext(r.Context()); ok {
		sess.GuestID = guest.ID
	}
	return sess, nil
}
