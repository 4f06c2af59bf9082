// Package eventstore is the thin SQLite-backed collaborator the recurrence
// core assumes but never reaches into: the EventSingle/EventRecurring
// parent_id relationship is a lookup by id, resolved through an external
// store when needed. Store is that collaborator. It persists
// event.EventPlain rows and answers GetByID/ListRecurring lookups; it is
// not a general persistence layer and carries no HTTP surface, auth, or
// migrations framework.
package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/example/calendar-engine/internal/event"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	parent_id TEXT,
	is_recurring INTEGER NOT NULL,
	last_modified TEXT NOT NULL,
	payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_is_recurring ON events (is_recurring);
`

// Store is a SQLite-backed lookup table of event.EventPlain rows, keyed by
// id. Two Store handles over the same DSN may be used concurrently; all
// access goes through database/sql's own connection pooling.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or attaches to a SQLite database at dsn and ensures the
// events table exists. Callers must Close the returned Store.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("eventstore: open: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("eventstore: migrate schema: %w", err)
	}
	return &Store{db: db, logger: defaultLogger(logger)}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts p by id. p.ID must be set.
func (s *Store) Save(ctx context.Context, p event.EventPlain) error {
	logger := storeLogger(ctx, s.logger, "Save")
	if p.ID == nil {
		return fmt.Errorf("eventstore: save: %w", &event.FromPlainError{Kind: event.ErrMissingField, Field: "id"})
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("eventstore: marshal payload: %w", err)
	}

	var parentID any
	if p.ParentID != nil {
		parentID = p.ParentID.String()
	}
	var lastModified string
	if p.LastModified != nil {
		lastModified = p.LastModified.Format("2006-01-02T15:04")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (id, parent_id, is_recurring, last_modified, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_id = excluded.parent_id,
			is_recurring = excluded.is_recurring,
			last_modified = excluded.last_modified,
			payload = excluded.payload
	`, p.ID.String(), parentID, boolToInt(p.Recurrence != nil), lastModified, string(payload))
	if err != nil {
		logger.ErrorContext(ctx, "failed to save event", "error", err, "error_kind", ErrorKind(err))
		return fmt.Errorf("eventstore: save %s: %w", p.ID, err)
	}
	return nil
}

// GetByID returns the stored EventPlain for id, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (event.EventPlain, error) {
	logger := storeLogger(ctx, s.logger, "GetByID", "id", id)

	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM events WHERE id = ?`, id.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return event.EventPlain{}, ErrNotFound
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to load event", "error", err, "error_kind", ErrorKind(err))
		return event.EventPlain{}, fmt.Errorf("eventstore: get %s: %w", id, err)
	}

	var p event.EventPlain
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return event.EventPlain{}, fmt.Errorf("eventstore: unmarshal payload for %s: %w", id, err)
	}
	return p, nil
}

// ListRecurring returns every stored EventPlain whose recurrence block is
// present, in no particular order.
func (s *Store) ListRecurring(ctx context.Context) ([]event.EventPlain, error) {
	logger := storeLogger(ctx, s.logger, "ListRecurring")

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM events WHERE is_recurring = 1`)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list recurring events", "error", err, "error_kind", ErrorKind(err))
		return nil, fmt.Errorf("eventstore: list recurring: %w", err)
	}
	defer rows.Close()

	var out []event.EventPlain
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("eventstore: scan recurring row: %w", err)
		}
		var p event.EventPlain
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("eventstore: unmarshal recurring row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("eventstore: iterate recurring rows: %w", err)
	}
	return out, nil
}

// DeleteByID removes the row for id. Deleting a missing id is a no-op.
func (s *Store) DeleteByID(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("eventstore: delete %s: %w", id, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
