package migrations

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"markets-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded PostgreSQL files in lexical order.
// Every file is idempotent, so the set is re-applied on each start.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	files, err := load(postgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, m := range files {
		if _, err := pool.Exec(ctx, m.body); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		logger.Debug("applied migration", zap.String("database", "postgres"), zap.String("file", m.name))
	}
	logger.Info("postgres migrations complete", zap.Int("files", len(files)))
	return nil
}
