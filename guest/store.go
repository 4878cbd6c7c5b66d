// Package guest keeps guest sessions and their carts in a SQL database,
// SQLite by default and PostgreSQL when configured.
package guest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud-kitchen/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Timestamps are unix seconds so the same schema works on both drivers.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS guest_sessions (
		id         TEXT PRIMARY KEY,
		created_at BIGINT NOT NULL,
		expires_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS guest_sessions_expires_at ON guest_sessions (expires_at)`,
	`CREATE TABLE IF NOT EXISTS guest_cart_entries (
		session_id   TEXT    NOT NULL,
		position     INTEGER NOT NULL,
		food_item_id TEXT    NOT NULL,
		quantity     INTEGER NOT NULL,
		PRIMARY KEY (session_id, position)
	)`,
}

// Store is a sqlx handle plus the logger it reports to.
type Store struct {
	db  *sqlx.DB
	log *logrus.Entry
}

type sessionRow struct {
	ID        string `db:"id"`
	CreatedAt int64  `db:"created_at"`
	ExpiresAt int64  `db:"expires_at"`
}

// Open connects with driver ("sqlite3" or "postgres") and creates the tables.
func Open(ctx context.Context, driver, dsn string, log *logrus.Entry) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open guest store: %w", err)
	}
	if driver == "sqlite3" {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init guest schema: %w", err)
		}
	}
	log.WithField("driver", driver).Info("Opened guest store")
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateSession(ctx context.Context, sess models.GuestSession) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO guest_sessions (id, created_at, expires_at) VALUES (?, ?, ?)`),
		sess.ID, sess.CreatedAt.Unix(), sess.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("insert guest session: %w", err)
	}
	return nil
}

func (s *Store) Session(ctx context.Context, id string, now time.Time) (*models.GuestSession, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind(`SELECT id, created_at, expires_at FROM guest_sessions WHERE id = ? AND expires_at > ?`),
		id, now.Unix())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select guest session: %w", err)
	}
	return &models.GuestSession{
		ID:        row.ID,
		CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
		ExpiresAt: time.Unix(row.ExpiresAt, 0).UTC(),
	}, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	var deleted int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM guest_cart_entries WHERE session_id = ?`), id); err != nil {
			return fmt.Errorf("delete guest cart: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM guest_sessions WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("delete guest session: %w", err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return models.ErrNotFound
	}
	return nil
}

// PurgeExpired removes expired sessions with their carts and reports how many went.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var purged int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM guest_cart_entries WHERE session_id IN
			(SELECT id FROM guest_sessions WHERE expires_at <= ?)`), now.Unix())
		if err != nil {
			return fmt.Errorf("purge guest carts: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM guest_sessions WHERE expires_at <= ?`), now.Unix())
		if err != nil {
			return fmt.Errorf("purge guest sessions: %w", err)
		}
		purged, err = res.RowsAffected()
		return err
	})
	return purged, err
}

func (s *Store) Entries(ctx context.Context, sessionID string) ([]models.GuestCartEntry, error) {
	entries := []models.GuestCartEntry{}
	err := s.db.SelectContext(ctx, &entries,
		s.db.Rebind(`SELECT food_item_id, quantity FROM guest_cart_entries WHERE session_id = ? ORDER BY position`),
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("select guest cart: %w", err)
	}
	return entries, nil
}

// SaveEntries replaces the whole cart; positions follow slice order.
func (s *Store) SaveEntries(ctx context.Context, sessionID string, entries []models.GuestCartEntry) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT 1 FROM guest_sessions WHERE id = ?`), sessionID)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check guest session: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM guest_cart_entries WHERE session_id = ?`), sessionID); err != nil {
			return fmt.Errorf("clear guest cart: %w", err)
		}
		insert := tx.Rebind(`INSERT INTO guest_cart_entries (session_id, position, food_item_id, quantity) VALUES (?, ?, ?, ?)`)
		for i, e := range entries {
			if _, err := tx.ExecContext(ctx, insert, sessionID, i, e.FoodItemID, e.Quantity); err != nil {
				return fmt.Errorf("insert guest cart entry: %w", err)
			}
		}
		return nil
	})
}

// inTx runs fn in a transaction and rolls back on any error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if e := tx.Rollback(); e != nil {
			s.log.WithError(e).Error("Cannot rollback a transaction")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
