package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"signal-replay-lab/internal/config"
	"signal-replay-lab/internal/storage"
	chstore "signal-replay-lab/internal/storage/clickhouse"
	"signal-replay-lab/internal/storage/memory"
	"signal-replay-lab/internal/storage/migrations"
	"signal-replay-lab/internal/storage/parquetfs"
	"signal-replay-lab/internal/storage/postgres"
	redisstore "signal-replay-lab/internal/storage/redis"
	"signal-replay-lab/internal/storage/sqlite"
)

// pgSignalStore closes the pool it owns.
type pgSignalStore struct {
	*postgres.SignalStore
	pool *postgres.Pool
}

func (s pgSignalStore) Close() error {
	s.pool.Close()
	return nil
}

func openSignalStore(ctx context.Context, cfg *config.Config) (storage.SignalStore, error) {
	switch cfg.SignalStore.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.SignalStore.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		store, err := postgres.NewSignalStore(pool, cfg.SignalStore.Table)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return pgSignalStore{SignalStore: store, pool: pool}, nil
	default:
		store, err := sqlite.Open(cfg.SignalStore.Path, cfg.SignalStore.Table)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

func openBarStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage.BarCacheStore, func(), error) {
	noop := func() {}

	switch cfg.BarCache.Backend {
	case config.BackendMemory:
		return memory.NewBarCacheStore(), noop, nil
	case config.BackendRedis:
		store, err := redisstore.NewBarCacheStore(ctx, redisstore.Config{
			Addr:     cfg.BarCache.RedisAddr,
			Password: cfg.BarCache.RedisPassword,
			DB:       cfg.BarCache.RedisDB,
			Prefix:   cfg.BarCache.RedisPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case config.BackendClickHouse:
		conn, err := migrations.EnsureBarCacheSchema(ctx, cfg.BarCache.ClickHouseDSN, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("prepare clickhouse bar cache: %w", err)
		}
		return chstore.NewBarCacheStore(conn), func() { _ = conn.Close() }, nil
	default:
		return parquetfs.NewBarCacheStore(cfg.BarCache.Dir), noop, nil
	}
}
