package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"markets-lab/internal/refresher"
	"markets-lab/internal/server"
)

var (
	serveAddr       string
	refreshInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with the periodic refresh loop",
	Long: `Serves the Recommended rows over HTTP and pushes every refresh to
websocket subscribers.

Endpoints:
  GET /health
  GET /metrics
  GET /status
  GET /api/markets/recommended?chainId=
  GET /api/markets/rows/{category}?chainId=&limit=
  GET /api/markets/rows/{category}/history?from=&to=
  GET /api/metrics/latest?assetId=
  GET /api/metrics/history?assetId=&from=&to=
  GET /api/chains/{chainId}/card
  GET /ws`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	interval := a.cfg.RefreshInterval
	if refreshInterval > 0 {
		interval = refreshInterval
	}

	a.page.Mount(ctx)
	defer a.page.Unmount()

	hub := server.NewHub(logger)
	r := refresher.New(refresher.Options{
		Page:        a.page,
		Snapshots:   a.stores.snapshots,
		Metrics:     a.stores.metrics,
		Broadcaster: hub,
		Interval:    interval,
		Logger:      logger,
	})
	srv := server.New(server.Options{
		Page:      a.page,
		Store:     a.store,
		Hub:       hub,
		Status:    r,
		Snapshots: a.stores.snapshots,
		Metrics:   a.stores.metrics,
		Logger:    logger,
	})

	// a second signal forces exit
	go func() {
		<-ctx.Done()
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			logger.Warn("received second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Error("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx, addr) })
	g.Go(func() error { return r.Run(gctx) })

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", zap.Error(err))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
