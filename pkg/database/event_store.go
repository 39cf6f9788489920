package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/events"
)

// EventStore satisfies the query shape pkg/events' catchup adapter needs
// (GetEventsSince) plus retention cleanup for the events table. It does
// NOT persist events itself - events.EventPublisher owns writes via its
// own transaction so that INSERT and pg_notify commit atomically.
type EventStore struct {
	db *sql.DB
}

// NewEventStore returns an EventStore backed by db.
func NewEventStore(db *sql.DB) *EventStore { return &EventStore{db: db} }

// GetEventsSince returns up to limit events on channel with id > sinceID,
// in ascending id order. Satisfies pkg/events' eventQuerier interface.
func (s *EventStore) GetEventsSince(ctx context.Context, channel string, sinceID, limit int) ([]events.StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM events WHERE channel = $1 AND id > $2 ORDER BY id ASC LIMIT $3`,
		channel, sinceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("database: get events since: %w", err)
	}
	defer rows.Close()

	var out []events.StoredEvent
	for rows.Next() {
		var evt events.StoredEvent
		var payloadJSON []byte
		if err := rows.Scan(&evt.ID, &payloadJSON); err != nil {
			return nil, fmt.Errorf("database: scan event: %w", err)
		}
		if err := json.Unmarshal(payloadJSON, &evt.Payload); err != nil {
			return nil, fmt.Errorf("database: unmarshal event payload: %w", err)
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

// CleanupOrphanedEvents deletes events rows older than ttl, for the
// retention sweep.
func (s *EventStore) CleanupOrphanedEvents(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl)
	result, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("database: cleanup orphaned events: %w", err)
	}
	return result.RowsAffected()
}
