// Package sqlite persists the event journal in a local SQLite database so a
// single-node deployment keeps its history across restarts without needing
// Kafka.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"curio/internal/events"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id           TEXT PRIMARY KEY,
	type         TEXT NOT NULL,
	ts           INTEGER NOT NULL,
	item_id      INTEGER NOT NULL DEFAULT 0,
	actor        TEXT NOT NULL,
	counterparty TEXT NOT NULL DEFAULT '',
	amount       TEXT NOT NULL DEFAULT '',
	descriptor   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS events_item_idx ON events (item_id, ts);
`

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path. Use ":memory:" for an
// ephemeral journal.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open event journal: %w", err)
	}
	// modernc sqlite serializes per connection; one writer avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("event journal schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Append(ctx context.Context, e events.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, type, ts, item_id, actor, counterparty, amount, descriptor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID.String(), string(e.Type), e.Timestamp.UnixNano(), e.ItemID,
		e.Actor, e.Counterparty, e.Amount, e.Descriptor)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *Store) ListByItem(ctx context.Context, itemID uint64) ([]events.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, ts, item_id, actor, counterparty, amount, descriptor
		FROM events WHERE item_id = ? ORDER BY ts ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var e events.Event
		var idStr, typeStr string
		var ts int64
		if err := rows.Scan(&idStr, &typeStr, &ts, &e.ItemID, &e.Actor, &e.Counterparty, &e.Amount, &e.Descriptor); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("scan event id: %w", err)
		}
		e.ID = id
		e.Type = events.Type(typeStr)
		e.Timestamp = time.Unix(0, ts).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
