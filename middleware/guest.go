package middleware

import (
	"context"
	"errors"
	"net/http"

	"cloud-kitchen/models"
	"cloud-kitchen/services"

	"github.com/sirupsen/logrus"
)

// GuestHeader carries the guest session id.
const GuestHeader = "X-Guest-Session"

// GuestResolver looks up live guest sessions.
type GuestResolver interface {
	Resolve(ctx context.Context, id string) (*models.GuestSession, error)
}

// GuestFromContext returns the guest session attached by GuestSession.
func GuestFromContext(ctx context.Context) (*models.GuestSession, bool) {
	sess, ok := ctx.Value(GuestContextKey).(*models.GuestSession)
	return sess, ok
}

// GuestSession attaches the session named in X-Guest-Session. Requests without
// the header pass through; unknown or expired sessions get 401.
func GuestSession(resolver GuestResolver, log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(GuestHeader)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			sess, err := resolver.Resolve(r.Context(), id)
			if errors.Is(err, services.ErrNoSession) {
				http.Error(w, "Guest session expired, start a new one", http.StatusUnauthorized)
				return
			}
			if err != nil {
				log.WithError(err).Error("Failed to resolve guest session")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			ctx := context.WithValue(r.Context(), GuestContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
