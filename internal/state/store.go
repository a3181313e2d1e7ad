// Package state holds the process-wide view that renderers read through
// selectors: asset metadata by id and feature flags.
package state

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"markets-lab/internal/caip"
	"markets-lab/internal/config"
	"markets-lab/internal/domain"
	"markets-lab/internal/storage"
)

// Feature flag names.
const (
	FlagArbitrumNova = "ArbitrumNova"
	FlagSolana       = "Solana"
)

// Snapshot is an immutable view of the store. Writers replace it wholesale.
type Snapshot struct {
	Assets map[caip.AssetID]*domain.Asset
	Flags  map[string]bool
}

// Selector derives a value from a snapshot.
type Selector[T any] func(*Snapshot) T

// Store is the state container. Create one per process and inject it.
type Store struct {
	mu     sync.RWMutex
	snap   *Snapshot
	subs   map[int]func(*Snapshot)
	nextID int
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		snap: &Snapshot{
			Assets: map[caip.AssetID]*domain.Asset{},
			Flags:  map[string]bool{},
		},
		subs: make(map[int]func(*Snapshot)),
	}
}

// Snapshot returns the current snapshot. Callers must not mutate it.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Select applies sel to the current snapshot.
func Select[T any](s *Store, sel Selector[T]) T {
	return sel(s.Snapshot())
}

// SelectAssetByID returns the asset or nil.
func SelectAssetByID(id caip.AssetID) Selector[*domain.Asset] {
	return func(snap *Snapshot) *domain.Asset {
		return snap.Assets[id]
	}
}

// SelectFeatureFlag reports whether a flag is on. Unknown flags are off.
func SelectFeatureFlag(name string) Selector[bool] {
	return func(snap *Snapshot) bool {
		return snap.Flags[name]
	}
}

// UpsertAssets adds or replaces assets keyed by id.
func (s *Store) UpsertAssets(assets ...*domain.Asset) {
	if len(assets) == 0 {
		return
	}
	s.update(func(next *Snapshot) {
		next.Assets = maps.Clone(next.Assets)
		for _, a := range assets {
			if a != nil {
				next.Assets[a.AssetID] = a
			}
		}
	})
}

// SetFeatureFlags replaces every flag.
func (s *Store) SetFeatureFlags(flags map[string]bool) {
	s.update(func(next *Snapshot) {
		next.Flags = maps.Clone(flags)
		if next.Flags == nil {
			next.Flags = map[string]bool{}
		}
	})
}

// Subscribe registers fn to receive every new snapshot.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(*Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) update(mutate func(*Snapshot)) {
	s.mu.Lock()
	next := &Snapshot{Assets: s.snap.Assets, Flags: s.snap.Flags}
	mutate(next)
	s.snap = next
	subs := make([]func(*Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

// Hydrate loads every asset from the store.
func (s *Store) Hydrate(ctx context.Context, assets storage.AssetStore) error {
	list, err := assets.List(ctx)
	if err != nil {
		return fmt.Errorf("list assets: %w", err)
	}
	s.UpsertAssets(list...)
	return nil
}

// FlagsFromConfig maps config feature flags to store flag names.
func FlagsFromConfig(f config.FeatureFlags) map[string]bool {
	return map[string]bool{
		FlagArbitrumNova: f.ArbitrumNova,
		FlagSolana:       f.Solana,
	}
}
