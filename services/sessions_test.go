package services_test

import (
	"context"
	"testing"
	"time"

	"cloud-kitchen/memstore"
	"cloud-kitchen/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess, err := f.sessions.Start(ctx)
	require.NoError(t, err)
	assert.WithinDuration(t, sess.CreatedAt.Add(time.Hour), sess.ExpiresAt, time.Second)

	got, err := f.sessions.Resolve(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	_, err = f.sessions.Resolve(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, services.ErrNoSession)

	require.NoError(t, f.sessions.End(ctx, sess.ID))
	_, err = f.sessions.Resolve(ctx, sess.ID)
	assert.ErrorIs(t, err, services.ErrNoSession)
	assert.NoError(t, f.sessions.End(ctx, sess.ID), "ending twice is fine")
}

func TestGuestSessionExpiry(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	short := services.NewSessionService(store, time.Millisecond, quietLog())

	sess, err := short.Start(ctx)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = short.Resolve(ctx, sess.ID)
	assert.ErrorIs(t, err, services.ErrNoSession)

	n, err := short.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSessionChatID(t *testing.T) {
	assert.Equal(t, "", services.Session{}.ChatID())
	assert.Equal(t, "guest_abc", services.Session{GuestID: "abc"}.ChatID())
}
