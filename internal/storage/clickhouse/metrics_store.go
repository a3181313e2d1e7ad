package clickhouse

import (
	"context"
	"fmt"
	"time"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/storage"
)

// MetricsStore implements storage.MetricsStore using ClickHouse.
type MetricsStore struct {
	conn *Conn
}

// NewMetricsStore creates a new MetricsStore.
func NewMetricsStore(conn *Conn) *MetricsStore {
	return &MetricsStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MetricsStore = (*MetricsStore)(nil)

type metricsKey struct {
	assetID     caip.AssetID
	category    domain.Category
	timestampMs int64
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
// MergeTree does not enforce uniqueness, so duplicates are checked before insert.
func (s *MetricsStore) InsertBulk(ctx context.Context, points []*domain.MetricsPoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[metricsKey]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.AssetID == "" {
			return storage.ErrInvalidInput
		}
		k := metricsKey{p.AssetID, p.Category, p.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, p := range points {
		exists, err := s.exists(ctx, p)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	start := time.Now()
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO opportunity_metrics (
			asset_id, category, timestamp_ms, apy, volume_usd_1d
		)
	`)
	if err != nil {
		observe("metrics_insert", start, err)
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			string(p.AssetID), string(p.Category), uint64(p.TimestampMs), p.APY, p.VolumeUSD1d,
		)
		if err != nil {
			observe("metrics_insert", start, err)
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	err = batch.Send()
	observe("metrics_insert", start, err)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// Latest retrieves the newest point of each requested asset.
func (s *MetricsStore) Latest(ctx context.Context, assetIDs []caip.AssetID) (map[caip.AssetID]*domain.MetricsPoint, error) {
	result := make(map[caip.AssetID]*domain.MetricsPoint)
	if len(assetIDs) == 0 {
		return result, nil
	}

	ids := make([]string, len(assetIDs))
	for i, id := range assetIDs {
		ids[i] = string(id)
	}

	query := `
		SELECT asset_id, category, timestamp_ms, apy, volume_usd_1d
		FROM opportunity_metrics
		WHERE asset_id IN ?
		ORDER BY asset_id ASC, timestamp_ms DESC, category DESC
		LIMIT 1 BY asset_id
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query, ids)
	observe("metrics_latest", start, err)
	if err != nil {
		return nil, fmt.Errorf("query latest metrics: %w", err)
	}
	defer rows.Close()

	points, err := scanMetrics(rows)
	if err != nil {
		return nil, err
	}
	for _, p := range points {
		result[p.AssetID] = p
	}
	return result, nil
}

// GetByTimeRange retrieves points for an asset within [start, end] (inclusive).
func (s *MetricsStore) GetByTimeRange(ctx context.Context, assetID caip.AssetID, start, end int64) ([]*domain.MetricsPoint, error) {
	query := `
		SELECT asset_id, category, timestamp_ms, apy, volume_usd_1d
		FROM opportunity_metrics
		WHERE asset_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC, category ASC
	`

	began := time.Now()
	rows, err := s.conn.Query(ctx, query, string(assetID), uint64(start), uint64(end))
	observe("metrics_range", began, err)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanMetrics(rows)
}

// exists checks if a point with the same key exists.
func (s *MetricsStore) exists(ctx context.Context, p *domain.MetricsPoint) (bool, error) {
	query := `
		SELECT count(*) FROM opportunity_metrics
		WHERE asset_id = ? AND category = ? AND timestamp_ms = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, string(p.AssetID), string(p.Category), uint64(p.TimestampMs)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanMetrics scans multiple rows.
func scanMetrics(rows chRows) ([]*domain.MetricsPoint, error) {
	var points []*domain.MetricsPoint

	for rows.Next() {
		var p domain.MetricsPoint
		var assetID, category string
		var timestampMs uint64

		if err := rows.Scan(&assetID, &category, &timestampMs, &p.APY, &p.VolumeUSD1d); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		p.AssetID = caip.AssetID(assetID)
		p.Category = domain.Category(category)
		p.TimestampMs = int64(timestampMs)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return points, nil
}
