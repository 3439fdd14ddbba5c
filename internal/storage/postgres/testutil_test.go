package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// fixtureSchema mirrors the upstream signal generator's table. The store
// never creates it; tests do.
const fixtureSchema = `
	CREATE TABLE IF NOT EXISTS signals (
		id              BIGSERIAL PRIMARY KEY,
		symbol          TEXT NOT NULL,
		action          TEXT NOT NULL,
		confidence      DOUBLE PRECISION,
		price           DOUBLE PRECISION,
		stop_loss_pct   DOUBLE PRECISION,
		take_profit_pct DOUBLE PRECISION,
		created_at      TIMESTAMPTZ NOT NULL
	)
`

// setupTestDB creates a PostgreSQL container with the signal fixture schema.
// Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	_, err = pool.Exec(ctx, fixtureSchema)
	require.NoError(t, err, "failed to create fixture schema")

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// ptr is a helper to create pointers to values.
func ptr[T any](v T) *T {
	return &v
}
