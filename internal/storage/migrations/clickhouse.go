package migrations

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	chstore "markets-lab/internal/storage/clickhouse"
)

// RunClickhouseMigrations creates the DSN's database if needed, applies the
// embedded files statement by statement and returns a connection to it.
func RunClickhouseMigrations(ctx context.Context, dsn string, logger *zap.Logger) (*chstore.Conn, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dbName, err := databaseFromDSN(dsn)
	if err != nil {
		return nil, err
	}

	files, err := load(clickhouseFS, "clickhouse")
	if err != nil {
		return nil, err
	}

	admin, err := chstore.NewConnWithDatabase(ctx, dsn, "")
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse admin: %w", err)
	}
	if err := admin.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", dbName)); err != nil {
		admin.Close()
		return nil, fmt.Errorf("create database %s: %w", dbName, err)
	}
	if err := admin.Close(); err != nil {
		return nil, fmt.Errorf("close admin connection: %w", err)
	}

	conn, err := chstore.NewConnWithDatabase(ctx, dsn, dbName)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse db: %w", err)
	}

	// The native driver has no multi-statement Exec.
	for _, m := range files {
		if err := checkStatements(m.body); err != nil {
			conn.Close()
			return nil, fmt.Errorf("validate migration %s: %w", m.name, err)
		}
		for _, stmt := range splitStatements(m.body) {
			if err := conn.Exec(ctx, stmt); err != nil {
				conn.Close()
				return nil, fmt.Errorf("apply migration %s: %w", m.name, err)
			}
		}
		logger.Debug("applied migration", zap.String("database", "clickhouse"), zap.String("file", m.name))
	}
	logger.Info("clickhouse migrations complete", zap.String("database", dbName), zap.Int("files", len(files)))

	return conn, nil
}

func databaseFromDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	db := strings.TrimPrefix(u.Path, "/")
	if db == "" {
		return "", fmt.Errorf("clickhouse dsn missing database")
	}
	return db, nil
}
