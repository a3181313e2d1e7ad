package storage

import (
	"context"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
)

// AssetStore provides access to assets storage.
type AssetStore interface {
	// Upsert inserts or replaces an asset keyed by asset_id.
	Upsert(ctx context.Context, a *domain.Asset) error

	// GetByID retrieves an asset by its id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, assetID caip.AssetID) (*domain.Asset, error)

	// List retrieves all assets ordered by asset_id ASC.
	List(ctx context.Context) ([]*domain.Asset, error)
}

// SnapshotStore provides access to category_snapshots storage.
type SnapshotStore interface {
	// Insert adds a snapshot. Returns ErrDuplicateKey if snapshot_id exists.
	Insert(ctx context.Context, s *domain.CategorySnapshot) error

	// Latest retrieves the most recently fetched snapshot of a category.
	// Returns ErrNotFound if the category has no snapshots.
	Latest(ctx context.Context, category domain.Category) (*domain.CategorySnapshot, error)

	// GetByTimeRange retrieves snapshots of a category fetched within [start, end] (inclusive),
	// ordered by fetched_at ASC.
	GetByTimeRange(ctx context.Context, category domain.Category, start, end int64) ([]*domain.CategorySnapshot, error)
}

// MetricsStore provides access to opportunity_metrics storage.
type MetricsStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (asset_id, category, timestamp_ms).
	InsertBulk(ctx context.Context, points []*domain.MetricsPoint) error

	// Latest retrieves the newest point of each requested asset. Assets with no points are omitted.
	Latest(ctx context.Context, assetIDs []caip.AssetID) (map[caip.AssetID]*domain.MetricsPoint, error)

	// GetByTimeRange retrieves points for an asset within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, assetID caip.AssetID, start, end int64) ([]*domain.MetricsPoint, error)
}
