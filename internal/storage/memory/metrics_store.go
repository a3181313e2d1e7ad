package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/storage"
)

// MetricsStore is an in-memory implementation of storage.MetricsStore.
type MetricsStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MetricsPoint // keyed by (asset_id, category, timestamp_ms)
}

// NewMetricsStore creates a new in-memory metrics store.
func NewMetricsStore() *MetricsStore {
	return &MetricsStore{
		data: make(map[string]*domain.MetricsPoint),
	}
}

// metricsKey generates a unique key for a metrics point.
func metricsKey(p *domain.MetricsPoint) string {
	return fmt.Sprintf("%s|%s|%d", p.AssetID, p.Category, p.TimestampMs)
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *MetricsStore) InsertBulk(_ context.Context, points []*domain.MetricsPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(points))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range points {
		if p == nil || p.AssetID == "" {
			return storage.ErrInvalidInput
		}
		key := metricsKey(p)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range points {
		pointCopy := *p
		s.data[metricsKey(p)] = &pointCopy
	}

	return nil
}

// Latest retrieves the newest point of each requested asset.
func (s *MetricsStore) Latest(_ context.Context, assetIDs []caip.AssetID) (map[caip.AssetID]*domain.MetricsPoint, error) {
	wanted := make(map[caip.AssetID]struct{}, len(assetIDs))
	for _, id := range assetIDs {
		wanted[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[caip.AssetID]*domain.MetricsPoint)
	for _, p := range s.data {
		if _, ok := wanted[p.AssetID]; !ok {
			continue
		}
		cur, ok := result[p.AssetID]
		if !ok || p.TimestampMs > cur.TimestampMs ||
			(p.TimestampMs == cur.TimestampMs && p.Category > cur.Category) {
			pointCopy := *p
			result[p.AssetID] = &pointCopy
		}
	}
	return result, nil
}

// GetByTimeRange retrieves points for an asset within [start, end] (inclusive).
func (s *MetricsStore) GetByTimeRange(_ context.Context, assetID caip.AssetID, start, end int64) ([]*domain.MetricsPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MetricsPoint
	for _, p := range s.data {
		if p.AssetID == assetID && p.TimestampMs >= start && p.TimestampMs <= end {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TimestampMs != result[j].TimestampMs {
			return result[i].TimestampMs < result[j].TimestampMs
		}
		return result[i].Category < result[j].Category
	})
	return result, nil
}

var _ storage.MetricsStore = (*MetricsStore)(nil)
