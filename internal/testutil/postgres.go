package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/infrastructure/database"
)

// NewTestPool connects to TEST_DATABASE_URL and runs the migrations. The
// test is skipped when the variable is not set.
func NewTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.RunMigrations(ctx, pool, NewNullLogger()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return pool
}
