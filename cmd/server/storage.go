package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanrakshak/herbtrace/internal/config"
	"github.com/sanrakshak/herbtrace/internal/infrastructure/monitor"
	pgInfra "github.com/sanrakshak/herbtrace/internal/infrastructure/postgres"
	redisInfra "github.com/sanrakshak/herbtrace/internal/infrastructure/redis"
	"github.com/sanrakshak/herbtrace/internal/services/lifecycle"
	"github.com/sanrakshak/herbtrace/repository"
	"github.com/sanrakshak/herbtrace/repository/memory"
	"github.com/sanrakshak/herbtrace/repository/postgres"
	redisRepo "github.com/sanrakshak/herbtrace/repository/redis"
	"github.com/sanrakshak/herbtrace/repository/sqlite"
)

type storage struct {
	batches repository.BatchRepository
	farmers repository.FarmerRepository
	events  repository.EventRepository
	probes  []monitor.Option
}

// openStorage connects the configured driver and, when enabled, the Redis
// batch cache. Close hooks are registered on manager.
func openStorage(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, log *zap.Logger) (*storage, error) {
	st := &storage{}

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		st.batches = memory.NewBatchStore()
		st.farmers = memory.NewFarmerStore()
		st.events = memory.NewEventStore()
		log.Warn("using in-memory storage; data is lost on restart")

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		manager.Register("sqlite", func(context.Context) error { return db.Close() })
		st.batches = sqlite.NewBatchRepository(db)
		st.farmers = sqlite.NewFarmerRepository(db)
		st.events = sqlite.NewEventRepository(db)
		st.probes = append(st.probes, monitor.WithProbe("sqlite", db.PingContext, true, 0))

	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, log); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("postgres connection: %w", err)
		}
		manager.Register("postgres", func(context.Context) error {
			pgInfra.Close(pool, log)
			return nil
		})
		st.batches = postgres.NewBatchRepository(pool)
		st.farmers = postgres.NewFarmerRepository(pool)
		st.events = postgres.NewEventRepository(pool)
		st.probes = append(st.probes, monitor.WithProbe("postgresql", pgInfra.Probe(pool), true, 0))

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Cache.Enabled {
		client, err := redisInfra.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("redis connection: %w", err)
		}
		manager.Register("redis", func(context.Context) error { return client.Close() })
		st.batches = redisRepo.NewCachedBatchRepository(st.batches, client, cfg.Cache.TTL, log)
		// The cache degrades to pass-through, so it never gates delivery.
		st.probes = append(st.probes, monitor.WithProbe("redis", redisInfra.Probe(client), false, 0))
	}

	return st, nil
}
