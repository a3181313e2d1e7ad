package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"markets-lab/internal/config"
	"markets-lab/internal/storage/migrations"
	pgstore "markets-lab/internal/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded PostgreSQL and ClickHouse migrations",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	s := resolveStorage(cfg)
	if s.PostgresDSN == "" && s.ClickhouseDSN == "" {
		return errors.New("--postgres-dsn or --clickhouse-dsn is required")
	}

	if s.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, s.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool, logger); err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
	}
	if s.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, s.ClickhouseDSN, logger)
		if err != nil {
			return fmt.Errorf("clickhouse migrations: %w", err)
		}
		conn.Close()
	}
	logger.Info("migrations applied")
	return nil
}
