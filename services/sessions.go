package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud-kitchen/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionService issues and resolves guest sessions.
type SessionService struct {
	store GuestStore
	ttl   time.Duration
	now   func() time.Time
	log   *logrus.Entry
}

func NewSessionService(store GuestStore, ttl time.Duration, log *logrus.Entry) *SessionService {
	return &SessionService{store: store, ttl: ttl, now: time.Now, log: log}
}

// Start creates a fresh guest session.
func (s *SessionService) Start(ctx context.Context) (*models.GuestSession, error) {
	now := s.now().UTC()
	sess := models.GuestSession{
		ID:        uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create guest session: %w", err)
	}
	s.log.WithField("guest_session", sess.ID).Debug("Guest session started")
	return &sess, nil
}

// Resolve returns ErrNoSession for unknown, malformed or expired ids.
func (s *SessionService) Resolve(ctx context.Context, id string) (*models.GuestSession, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNoSession
	}
	sess, err := s.store.Session(ctx, id, s.now().UTC())
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load guest session: %w", err)
	}
	return sess, nil
}

// End deletes the session and its cart.
func (s *SessionService) End(ctx context.Context, id string) error {
	if err := s.store.DeleteSession(ctx, id); err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("delete guest session: %w", err)
	}
	s.log.WithField("guest_session", id).Debug("Guest session ended")
	return nil
}

// PurgeExpired drops every expired session.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.PurgeExpired(ctx, s.now().UTC())
}

// StartJanitor purges expired sessions every interval until ctx is done.
func (s *SessionService) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.PurgeExpired(ctx)
				if err != nil {
					s.log.WithError(err).Warn("Failed to purge guest sessions")
					continue
				}
				if n > 0 {
					s.log.WithField("purged", n).Info("Expired guest sessions purged")
				}
			}
		}
	}()
}
