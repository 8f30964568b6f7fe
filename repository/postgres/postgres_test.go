package postgres

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap/zaptest"

	"github.com/sanrakshak/herbtrace/internal/config"
	infra "github.com/sanrakshak/herbtrace/internal/infrastructure/postgres"
	"github.com/sanrakshak/herbtrace/repository/repotest"
)

// openTestPool connects to HERBTRACE_TEST_DATABASE_URL, applies the schema and
// empties the ledger tables. Tests skip when the variable is unset.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("HERBTRACE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("HERBTRACE_TEST_DATABASE_URL not set")
	}

	cfg := &config.Config{}
	cfg.Database.URL = dsn
	cfg.Database.Name = "herbtrace"
	cfg.Migrations.Enabled = true
	cfg.Migrations.Path = filepath.Join("..", "..", "assets", "migrations")
	if err := infra.RunMigrations(cfg, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `TRUNCATE farmers, batches, batch_events`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}

func TestPostgresRepositories(t *testing.T) {
	pool := openTestPool(t)

	t.Run("batches", func(t *testing.T) { repotest.BatchRepository(t, NewBatchRepository(pool)) })
	t.Run("farmers", func(t *testing.T) { repotest.FarmerRepository(t, NewFarmerRepository(pool)) })
	t.Run("events", func(t *testing.T) { repotest.EventRepository(t, NewEventRepository(pool)) })
}
