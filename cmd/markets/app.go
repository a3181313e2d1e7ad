package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"markets-lab/internal/config"
	"markets-lab/internal/marketdata"
	"markets-lab/internal/query"
	"markets-lab/internal/recommended"
	"markets-lab/internal/router"
	"markets-lab/internal/state"
)

// app is the wiring shared by serve and tui.
type app struct {
	cfg     *config.Config
	stores  *stores
	store   *state.Store
	page    *recommended.Page
	watcher *config.Watcher
	cleanup func()
}

// newApp loads config, opens storage, seeds and hydrates the state store and
// builds the Recommended page. nav may be nil.
func newApp(ctx context.Context, nav router.Navigator) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	st, cleanup, err := createStores(ctx, resolveStorage(cfg), useMemory)
	if err != nil {
		return nil, fmt.Errorf("failed to create stores: %w", err)
	}

	seeded, err := state.SeedFeeAssets(ctx, st.assets, nowMs())
	if err != nil {
		cleanup()
		return nil, err
	}
	logger.Debug("seeded fee assets", zap.Int("inserted", seeded))

	store := state.New()
	if err := store.Hydrate(ctx, st.assets); err != nil {
		cleanup()
		return nil, err
	}
	store.SetFeatureFlags(state.FlagsFromConfig(cfg.FeatureFlags))

	a := &app{cfg: cfg, stores: st, store: store, cleanup: cleanup}

	if configPath != "" {
		w, err := config.NewWatcher(configPath, config.WatcherOptions{
			Logger: logger,
			OnChange: func(c *config.Config) {
				store.SetFeatureFlags(state.FlagsFromConfig(c.FeatureFlags))
				logger.Info("feature flags reloaded",
					zap.Bool("arbitrum_nova", c.FeatureFlags.ArbitrumNova),
					zap.Bool("solana", c.FeatureFlags.Solana))
			},
		})
		if err != nil {
			logger.Warn("config watch disabled", zap.Error(err))
		} else {
			w.Start(ctx)
			a.watcher = w
		}
	}

	opts := []marketdata.Option{marketdata.WithLogger(logger)}
	sources := recommended.NewSources(recommended.SourcesOptions{
		Query:   query.NewClient(query.ClientOptions{Logger: logger}),
		Markets: marketdata.NewCoinGeckoClient(cfg.Endpoints.CoinGecko, opts...),
		Portals: marketdata.NewPortalsClient(cfg.Endpoints.Portals, opts...),
		Savers:  marketdata.NewThorchainClient(cfg.Endpoints.Thornode, cfg.Endpoints.Midgard, opts...),
		Logger:  logger,
	})
	a.page = recommended.NewPage(recommended.PageOptions{
		Sources:        sources,
		Store:          store,
		Navigator:      nav,
		SaversChainIDs: marketdata.SupportedThorchainSaversChainIDs,
		Logger:         logger,
	})

	warmed, err := a.page.Warm(ctx, st.snapshots, st.metrics)
	if err != nil {
		logger.Warn("warm from snapshots failed", zap.Error(err))
	} else if warmed > 0 {
		logger.Info("rows warmed from snapshots", zap.Int("rows", warmed))
	}
	return a, nil
}

// Close releases the watcher and storage.
func (a *app) Close() {
	if a.watcher != nil {
		a.watcher.Close()
	}
	a.cleanup()
}
