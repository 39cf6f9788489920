package api

import (
	"context"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/codeready-toolchain/tarsy/pkg/database"
	"github.com/codeready-toolchain/tarsy/pkg/engine"
	"github.com/codeready-toolchain/tarsy/pkg/events"
	"github.com/codeready-toolchain/tarsy/pkg/services"
	"github.com/google/uuid"
)

// newTestServer starts a throwaway PostgreSQL container with this module's
// migrations applied and wires a Server against real stores, for
// handler-level tests. Grounded on pkg/services/services_test.go's
// newTestDB helper.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("api_test"),
		tcpostgres.WithUsername("sessiond"),
		tcpostgres.WithPassword("sessiond"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	client, err := database.NewClient(ctx, database.Config{
		Host: host, Port: port.Int(), User: "sessiond", Password: "sessiond",
		Database: "api_test", SSLMode: "disable", MaxOpenConns: 5, MaxIdleConns: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sessionSvc := services.NewSessionService(database.NewSessionStore(client.DB()), nil)
	actionSvc := services.NewActionService(database.NewActionStore(client.DB()))
	browsers := engine.NewBrowserManager(func() string { return uuid.New().String() })
	connManager := events.NewConnectionManager(nil, 5*time.Second)

	return NewServer(client, sessionSvc, actionSvc, browsers, connManager)
}
