package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ADMIN_EMAILS", "Chef@Kitchen.test, owner@kitchen.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "sqlite3", cfg.GuestStoreDriver)
	assert.Equal(t, 30*24*time.Hour, cfg.GuestSessionTTL)
	assert.Equal(t, "http://localhost:8000", cfg.AppBaseURL)
	assert.True(t, cfg.IsAdminEmail("chef@kitchen.test"))
	assert.False(t, cfg.IsAdminEmail("guest@kitchen.test"))
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	t.Setenv("GUEST_SESSION_TTL", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "GUEST_SESSION_TTL")

	t.Setenv("GUEST_SESSION_TTL", "1h")
	t.Setenv("GUEST_STORE_DRIVER", "mysql")
	_, err = Load()
	assert.ErrorContains(t, err, "GUEST_STORE_DRIVER")

	t.Setenv("GUEST_STORE_DRIVER", "postgres")
	t.Setenv("PORT", "70000")
	_, err = Load()
	assert.ErrorContains(t, err, "PORT")
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
