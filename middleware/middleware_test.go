package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud-kitchen/models"
	"cloud-kitchen/services"
	"cloud-kitchen/utils"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := utils.GenerateJWT("64b7f0c2a1b2c3d4e5f60718", "u@kitchen.test", role)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"bad format", "Token abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"valid", "Bearer " + token(t, models.RoleUser), http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			AuthMiddleware(okHandler).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	var seen bool
	h := OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, seen = ClaimsFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, seen)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, models.RoleUser))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.True(t, seen)

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer junk")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminMiddleware(t *testing.T) {
	h := AuthMiddleware(AdminMiddleware(okHandler))
	for role, want := range map[string]int{models.RoleUser: http.StatusForbidden, models.RoleAdmin: http.StatusNoContent} {
		req := httptest.NewRequest(http.MethodPost, "/admin/foods", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}

type stubResolver map[string]*models.GuestSession

func (s stubResolver) Resolve(ctx context.Context, id string) (*models.GuestSession, error) {
	if sess, ok := s[id]; ok {
		return sess, nil
	}
	return nil, services.ErrNoSession
}

func TestGuestSession(t *testing.T) {
	resolver := stubResolver{"live": {ID: "live"}}
	var got *models.GuestSession
	h := GuestSession(resolver, quietLog())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GuestFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(GuestHeader, "live")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotNil(t, got)
	assert.Equal(t, "live", got.ID)

	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(GuestHeader, "gone")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	var id string
	h := RequestLogger(quietLog())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id = RequestIDFromContext(r.Context())
		http.Error(w, "nope", http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))
}
