package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/idhash"
	"markets-lab/internal/storage"
)

func newSnapshot(category domain.Category, fetchedAt int64, ids ...caip.AssetID) *domain.CategorySnapshot {
	return &domain.CategorySnapshot{
		SnapshotID: idhash.ComputeSnapshotID(category, fetchedAt, ids),
		Category:   category,
		AssetIDs:   ids,
		FetchedAt:  fetchedAt,
	}
}

func TestSnapshotStore_InsertAndLatest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	require.NoError(t, store.Insert(ctx, newSnapshot(domain.CategoryTrending, 1000, caip.BTCAssetID)))
	require.NoError(t, store.Insert(ctx, newSnapshot(domain.CategoryTrending, 2000, caip.SOLAssetID, caip.ETHAssetID, caip.BTCAssetID)))

	latest, err := store.Latest(ctx, domain.CategoryTrending)
	require.NoError(t, err)

	assert.Equal(t, int64(2000), latest.FetchedAt)
	assert.Equal(t, []caip.AssetID{caip.SOLAssetID, caip.ETHAssetID, caip.BTCAssetID}, latest.AssetIDs)
	assert.NotZero(t, latest.CreatedAt)
}

func TestSnapshotStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	snap := newSnapshot(domain.CategoryMarketCap, 1000, caip.ETHAssetID)
	require.NoError(t, store.Insert(ctx, snap))

	err := store.Insert(ctx, snap)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSnapshotStore_LatestNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSnapshotStore(pool)

	_, err := store.Latest(context.Background(), domain.CategoryTopMovers)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSnapshotStore_GetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewSnapshotStore(pool)

	for _, ts := range []int64{3000, 1000, 2000, 4000} {
		require.NoError(t, store.Insert(ctx, newSnapshot(domain.CategoryRecentlyAdded, ts, caip.ETHAssetID)))
	}

	result, err := store.GetByTimeRange(ctx, domain.CategoryRecentlyAdded, 1000, 3000)
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, int64(1000), result[0].FetchedAt)
	assert.Equal(t, int64(3000), result[2].FetchedAt)
}
