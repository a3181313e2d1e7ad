// Package main is the markets CLI: the API server with its refresh loop,
// the terminal UI and the migration runner.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose       bool
	configPath    string
	postgresDSN   string
	clickhouseDSN string
	useMemory     bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "markets",
	Short: "Markets Recommended page service",
	Long: `markets serves the ranked Recommended market rows (volume, market cap,
trending, top movers, recently added, one-click DeFi and THORChain savers),
each filterable by chain.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		if cmd.Name() == "tui" {
			// the terminal belongs to the UI
			config.OutputPaths = []string{"markets-tui.log"}
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	// Load .env file if exists
	loadEnvFile(".env")

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&configPath, "config", os.Getenv("MARKETS_CONFIG"), "YAML config file (feature flags, endpoints, refresh interval)")
	pf.StringVar(&postgresDSN, "postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	pf.StringVar(&clickhouseDSN, "clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	pf.BoolVar(&useMemory, "use-memory", false, "Use in-memory storage instead of PostgreSQL and ClickHouse")

	serveCmd.Flags().StringVar(&serveAddr, "addr", envOr("MARKETS_ADDR", ""), "HTTP listen address (overrides config)")
	serveCmd.Flags().DurationVar(&refreshInterval, "refresh-interval", 0, "Refresh interval (overrides config)")

	tuiCmd.Flags().StringVar(&tuiServerURL, "server", os.Getenv("MARKETS_SERVER_URL"), "Server base URL for live updates (e.g. http://localhost:8080)")

	rootCmd.AddCommand(serveCmd, tuiCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}
