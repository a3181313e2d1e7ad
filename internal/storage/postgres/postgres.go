package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"markets-lab/internal/observability"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// DefaultMaxConns caps the pool; the service issues few, short queries.
const DefaultMaxConns = 8

// NewPool creates a new Postgres connection pool.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if config.MaxConns > DefaultMaxConns {
		config.MaxConns = DefaultMaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// PostgreSQL error codes
const (
	pgErrUniqueViolation = "23505" // unique_violation
)

// isDuplicateKeyError checks if error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}

	return false
}

// isNotFoundError checks if error indicates no rows found.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// observe records the duration of a query. Missing rows are not errors.
func observe(operation string, start time.Time, err error) {
	if isNotFoundError(err) {
		err = nil
	}
	observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
}
