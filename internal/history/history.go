// Package history persists probe events to SQLite so they survive a restart
// and can be queried after the in-memory probe has been cleared.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/novaprops-core/internal/probe"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ErrInvalidRetention is returned by Prune for a non-positive duration.
var ErrInvalidRetention = errors.New("history: retention must be positive")

// Entry is one stored probe event.
type Entry struct {
	ID        int64       `json:"id"`
	Event     probe.Event `json:"event"`
	CreatedAt time.Time   `json:"created_at"`
}

// Repository stores probe events in the probe_events table.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository wraps an open, migrated database.
//
// Parameters:
//   - db: SQLite connection with the probe_events table present
//
// Returns:
//   - *Repository: Repository ready for use
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Record inserts one event.
func (r *Repository) Record(ctx context.Context, ev probe.Event) error {
	payload := ev.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO probe_events (timestamp, kind, subdevice, payload, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.Timestamp, ev.Kind, ev.Name(), string(body),
		r.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting probe event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first. An empty kind matches
// every kind. limit defaults to DefaultLimit and is capped at MaxLimit.
func (r *Repository) Recent(ctx context.Context, kind string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, timestamp, kind, payload, created_at
		 FROM probe_events
		 WHERE ? = '' OR kind = ?
		 ORDER BY timestamp DESC, id DESC
		 LIMIT ?`,
		kind, kind, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying probe events: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e         Entry
			body      string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Event.Timestamp, &e.Event.Kind, &body, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning probe event: %w", err)
		}
		if err := json.Unmarshal([]byte(body), &e.Event.Payload); err != nil {
			return nil, fmt.Errorf("unmarshalling payload: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating probe events: %w", err)
	}
	return entries, nil
}

// Prune deletes events whose timestamp is older than now-olderThan.
//
// Returns:
//   - int64: Rows deleted
//   - error: ErrInvalidRetention or the database error
func (r *Repository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, ErrInvalidRetention
	}
	cutoff := float64(r.now().Add(-olderThan).UnixNano()) / 1e9

	res, err := r.db.ExecContext(ctx, "DELETE FROM probe_events WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting probe events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

// Count returns the number of stored events.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM probe_events").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting probe events: %w", err)
	}
	return n, nil
}
