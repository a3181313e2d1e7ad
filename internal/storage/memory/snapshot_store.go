package memory

import (
	"context"
	"sort"
	"sync"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu         sync.RWMutex
	byID       map[string]*domain.CategorySnapshot
	byCategory map[domain.Category][]*domain.CategorySnapshot // insertion order
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		byID:       make(map[string]*domain.CategorySnapshot),
		byCategory: make(map[domain.Category][]*domain.CategorySnapshot),
	}
}

// Insert adds a snapshot. Returns ErrDuplicateKey if snapshot_id exists.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.CategorySnapshot) error {
	if snap == nil || snap.SnapshotID == "" || !snap.Category.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[snap.SnapshotID]; exists {
		return storage.ErrDuplicateKey
	}

	snapCopy := copySnapshot(snap)
	s.byID[snap.SnapshotID] = snapCopy
	s.byCategory[snap.Category] = append(s.byCategory[snap.Category], snapCopy)
	return nil
}

// Latest retrieves the most recently fetched snapshot of a category.
func (s *SnapshotStore) Latest(_ context.Context, category domain.Category) (*domain.CategorySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.CategorySnapshot
	for _, snap := range s.byCategory[category] {
		// ties resolve to the later insert
		if latest == nil || snap.FetchedAt >= latest.FetchedAt {
			latest = snap
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return copySnapshot(latest), nil
}

// GetByTimeRange retrieves snapshots fetched within [start, end] (inclusive).
func (s *SnapshotStore) GetByTimeRange(_ context.Context, category domain.Category, start, end int64) ([]*domain.CategorySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CategorySnapshot
	for _, snap := range s.byCategory[category] {
		if snap.FetchedAt >= start && snap.FetchedAt <= end {
			result = append(result, copySnapshot(snap))
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].FetchedAt < result[j].FetchedAt
	})
	return result, nil
}

func copySnapshot(snap *domain.CategorySnapshot) *domain.CategorySnapshot {
	snapCopy := *snap
	snapCopy.AssetIDs = append([]caip.AssetID(nil), snap.AssetIDs...)
	return &snapCopy
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
