package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/tarsy/pkg/database"
	"github.com/codeready-toolchain/tarsy/pkg/engine"
	"github.com/codeready-toolchain/tarsy/pkg/models"
)

func TestSessionService_CreateAndGetSession(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(database.NewSessionStore(db), nil)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, models.CreateSessionRequest{UserID: "alice", Task: "buy stamps"})
	require.NoError(t, err)
	assert.Equal(t, models.SessionPending, session.Status)
	assert.Equal(t, models.DefaultAgentConfig().MaxSteps, session.MaxSteps)

	got, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy stamps", got.Task)
}

func TestSessionService_CreateSessionRequiresTask(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(database.NewSessionStore(db), nil)

	_, err := svc.CreateSession(context.Background(), models.CreateSessionRequest{UserID: "alice"})
	assert.True(t, IsValidationError(err))
}

func TestSessionService_GetSessionNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(database.NewSessionStore(db), nil)

	_, err := svc.GetSession(context.Background(), "missing")
	assert.Equal(t, ErrNotFound, err)
}

func TestSessionService_ListSessionsFiltersByUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewSessionService(database.NewSessionStore(db), nil)
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, models.CreateSessionRequest{UserID: "alice", Task: "task one"})
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, models.CreateSessionRequest{UserID: "bob", Task: "task two"})
	require.NoError(t, err)

	resp, err := svc.ListSessions(ctx, models.SessionListFilters{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "task one", resp.Sessions[0].Task)
	assert.Equal(t, 1, resp.TotalCount)
}

func TestSessionService_CancelSessionDelegatesToEngineRegistry(t *testing.T) {
	registry := engine.NewRegistry()
	eng := engine.New(engine.Dependencies{Registry: registry})
	svc := NewSessionService(nil, eng)

	cancelled := false
	registry.Register("s1", nil, func() { cancelled = true })

	require.NoError(t, svc.CancelSession(context.Background(), "s1", true))
	assert.True(t, cancelled)

	stopped, status := registry.StopRequested("s1")
	assert.True(t, stopped)
	assert.Equal(t, models.SessionStopped, status)
}

func TestSessionService_CancelUnknownSessionErrors(t *testing.T) {
	eng := engine.New(engine.Dependencies{Registry: engine.NewRegistry()})
	svc := NewSessionService(nil, eng)

	err := svc.CancelSession(context.Background(), "missing", false)
	assert.Error(t, err)
}
