package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarsy/pkg/database"
	"github.com/codeready-toolchain/tarsy/pkg/events"
)

func TestEventService_EventsSinceReturnsOnlyNewerEvents(t *testing.T) {
	db := newTestDB(t)
	svc := NewEventService(database.NewEventStore(db))
	ctx := context.Background()

	publisher := events.NewEventPublisher(db)
	require.NoError(t, publisher.PublishSessionUpdate(ctx, "s1", events.SessionUpdatePayload{
		Type: "session_update", SessionID: "s1", Message: "step 1/50: open site",
	}))
	require.NoError(t, publisher.PublishSessionUpdate(ctx, "s1", events.SessionUpdatePayload{
		Type: "session_update", SessionID: "s1", Message: "step 2/50: click button",
	}))

	got, err := svc.EventsSince(ctx, "session:s1", 0, 100)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.EventsSince(ctx, "session:s1", got[0].ID, 100)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestEventService_CleanupOrphanedEventsDeletesOldRows(t *testing.T) {
	db := newTestDB(t)
	svc := NewEventService(database.NewEventStore(db))
	ctx := context.Background()

	publisher := events.NewEventPublisher(db)
	require.NoError(t, publisher.PublishSessionUpdate(ctx, "s1", events.SessionUpdatePayload{
		Type: "session_update", SessionID: "s1", Message: "hello",
	}))

	count, err := svc.CleanupOrphanedEvents(ctx, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, int64(1))
}
