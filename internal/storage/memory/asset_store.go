package memory

import (
	"context"
	"sort"
	"sync"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/storage"
)

// AssetStore is an in-memory implementation of storage.AssetStore.
type AssetStore struct {
	mu   sync.RWMutex
	data map[caip.AssetID]*domain.Asset
}

// NewAssetStore creates a new in-memory asset store.
func NewAssetStore() *AssetStore {
	return &AssetStore{
		data: make(map[caip.AssetID]*domain.Asset),
	}
}

// Upsert inserts or replaces an asset keyed by asset_id.
func (s *AssetStore) Upsert(_ context.Context, a *domain.Asset) error {
	if a == nil || a.AssetID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	assetCopy := copyAsset(a)
	s.data[a.AssetID] = assetCopy
	return nil
}

// GetByID retrieves an asset by its id. Returns ErrNotFound if not exists.
func (s *AssetStore) GetByID(_ context.Context, assetID caip.AssetID) (*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[assetID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyAsset(a), nil
}

// List retrieves all assets ordered by asset_id ASC.
func (s *AssetStore) List(_ context.Context) ([]*domain.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Asset, 0, len(s.data))
	for _, a := range s.data {
		result = append(result, copyAsset(a))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].AssetID < result[j].AssetID
	})
	return result, nil
}

func copyAsset(a *domain.Asset) *domain.Asset {
	assetCopy := *a
	if a.NetworkName != nil {
		name := *a.NetworkName
		assetCopy.NetworkName = &name
	}
	return &assetCopy
}

var _ storage.AssetStore = (*AssetStore)(nil)
