package middleware

import (
	"context"
	"net/http"
	"strings"

	"cloud-kitchen/models"
	"cloud-kitchen/utils"
)

// Key type for context
type contextKey string

const (
	UserContextKey  = contextKey("user")
	GuestContextKey = contextKey("guest")
	RequestIDKey    = contextKey("request_id")
)

// ClaimsFromContext returns the signed-in user's claims, if any.
func ClaimsFromContext(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*utils.Claims)
	return claims, ok
}

// bearerClaims parses the Authorization header; present is false without one.
func bearerClaims(r *http.Request) (claims *utils.Claims, present bool, msg string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, false, "Authorization header missing"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, true, "Invalid Authorization header format"
	}
	claims, err := utils.ParseJWT(parts[1])
	if err != nil || claims.UserID == "" {
		return nil, true, "Invalid token"
	}
	return claims, true, ""
}

// AuthMiddleware verifies JWT tokens and attaches user information to the context
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _, msg := bearerClaims(r)
		if claims == nil {
			http.Error(w, msg, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attaches the user when a token is sent; a bad token is still rejected.
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, present, msg := bearerClaims(r)
		if !present {
			next.ServeHTTP(w, r)
			return
		}
		if claims == nil {
			http.Error(w, msg, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminMiddleware ensures that the user has admin privileges
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || claims.Role != models.RoleAdmin {
			http.Error(w, "Forbidden: Admins only", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
