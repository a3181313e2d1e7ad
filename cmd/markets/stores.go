package main

import (
	"context"
	"fmt"

	"markets-lab/internal/config"
	"markets-lab/internal/storage"
	chstore "markets-lab/internal/storage/clickhouse"
	"markets-lab/internal/storage/memory"
	"markets-lab/internal/storage/migrations"
	pgstore "markets-lab/internal/storage/postgres"
)

// stores holds the storage implementations.
type stores struct {
	assets    storage.AssetStore
	snapshots storage.SnapshotStore
	metrics   storage.MetricsStore
}

// resolveStorage applies the DSN flags over the config file.
func resolveStorage(cfg *config.Config) config.Storage {
	s := cfg.Storage
	if postgresDSN != "" {
		s.PostgresDSN = postgresDSN
	}
	if clickhouseDSN != "" {
		s.ClickhouseDSN = clickhouseDSN
	}
	return s
}

// createStores opens the configured backends. Each empty DSN, or
// --use-memory, selects the in-memory store for that concern.
func createStores(ctx context.Context, s config.Storage, memoryOnly bool) (*stores, func(), error) {
	out := &stores{
		assets:    memory.NewAssetStore(),
		snapshots: memory.NewSnapshotStore(),
		metrics:   memory.NewMetricsStore(),
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	if memoryOnly {
		return out, cleanup, nil
	}

	if s.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, s.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool, logger); err != nil {
			cleanup()
			return nil, nil, err
		}
		out.assets = pgstore.NewAssetStore(pool)
		out.snapshots = pgstore.NewSnapshotStore(pool)
	}

	if s.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, s.ClickhouseDSN, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		out.metrics = chstore.NewMetricsStore(conn)
	}

	return out, cleanup, nil
}
