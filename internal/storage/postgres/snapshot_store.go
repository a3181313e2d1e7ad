package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Insert adds a snapshot. Returns ErrDuplicateKey if snapshot_id exists.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.CategorySnapshot) error {
	if snap == nil || snap.SnapshotID == "" || !snap.Category.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO category_snapshots (snapshot_id, category, asset_ids, fetched_at)
		VALUES ($1, $2, $3, $4)
	`

	start := time.Now()
	_, err := s.pool.Exec(ctx, query,
		snap.SnapshotID,
		string(snap.Category),
		assetIDStrings(snap.AssetIDs),
		snap.FetchedAt,
	)
	observe("snapshot_insert", start, err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert category snapshot: %w", err)
	}
	return nil
}

// Latest retrieves the most recently fetched snapshot of a category.
func (s *SnapshotStore) Latest(ctx context.Context, category domain.Category) (*domain.CategorySnapshot, error) {
	query := `
		SELECT snapshot_id, category, asset_ids, fetched_at, created_at
		FROM category_snapshots
		WHERE category = $1
		ORDER BY fetched_at DESC, created_at DESC
		LIMIT 1
	`

	start := time.Now()
	row := s.pool.QueryRow(ctx, query, string(category))
	snap, err := scanSnapshot(row)
	observe("snapshot_latest", start, err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return snap, nil
}

// GetByTimeRange retrieves snapshots fetched within [start, end] (inclusive).
func (s *SnapshotStore) GetByTimeRange(ctx context.Context, category domain.Category, start, end int64) ([]*domain.CategorySnapshot, error) {
	query := `
		SELECT snapshot_id, category, asset_ids, fetched_at, created_at
		FROM category_snapshots
		WHERE category = $1 AND fetched_at >= $2 AND fetched_at <= $3
		ORDER BY fetched_at ASC
	`

	began := time.Now()
	rows, err := s.pool.Query(ctx, query, string(category), start, end)
	observe("snapshot_range", began, err)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by time range: %w", err)
	}
	defer rows.Close()

	var result []*domain.CategorySnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return result, nil
}

// scanSnapshot scans a single row into CategorySnapshot.
func scanSnapshot(row pgx.Row) (*domain.CategorySnapshot, error) {
	var snap domain.CategorySnapshot
	var category string
	var assetIDs []string

	err := row.Scan(
		&snap.SnapshotID,
		&category,
		&assetIDs,
		&snap.FetchedAt,
		&snap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	snap.Category = domain.Category(category)
	snap.AssetIDs = make([]caip.AssetID, len(assetIDs))
	for i, id := range assetIDs {
		snap.AssetIDs[i] = caip.AssetID(id)
	}
	return &snap, nil
}

func assetIDStrings(ids []caip.AssetID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
