package services

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/tarsy/pkg/database"
	"github.com/codeready-toolchain/tarsy/pkg/events"
)

// EventService backs the WebSocket subscribe protocol's catch-up replay
// (spec §6: a client reconnecting with a last-seen event id receives
// everything it missed) and the events-table retention sweep. Writes are
// not this service's concern — events.EventPublisher owns persistence so
// that the INSERT and the pg_notify commit atomically; see
// database.EventStore's doc comment.
type EventService struct {
	store *database.EventStore
}

// NewEventService creates a new EventService.
func NewEventService(store *database.EventStore) *EventService {
	return &EventService{store: store}
}

// EventsSince returns up to limit events on channel (typically
// "session:<id>") with id > sinceID, for replay on reconnect.
func (s *EventService) EventsSince(ctx context.Context, channel string, sinceID, limit int) ([]events.StoredEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	out, err := s.store.GetEventsSince(ctx, channel, sinceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get events since %d: %w", sinceID, err)
	}
	return out, nil
}

// CleanupOrphanedEvents deletes events rows older than ttlDays, for the
// retention sweep (pkg/cleanup).
func (s *EventService) CleanupOrphanedEvents(ctx context.Context, ttlDays int) (int64, error) {
	writeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := s.store.CleanupOrphanedEvents(writeCtx, time.Duration(ttlDays)*24*time.Hour)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup orphaned events: %w", err)
	}
	return count, nil
}
