package window

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markets-lab/internal/caip"
)

var (
	chain1 = caip.EthereumMainnet
	chain2 = caip.PolygonMainnet
	chain3 = caip.SolanaMainnet
)

func asset(chainID caip.ChainID, n int) caip.AssetID {
	return caip.MustAssetID(chainID, caip.AssetNamespaceSlip44, fmt.Sprint(n))
}

func ptr[T any](v T) *T {
	return &v
}

func TestWindow_FiltersBySelector(t *testing.T) {
	ids := []caip.AssetID{
		asset(chain1, 1), // A
		asset(chain2, 2), // B
		asset(chain1, 3), // C
		asset(chain1, 4), // D
		asset(chain3, 5),
		asset(chain1, 6),
		asset(chain2, 7),
		asset(chain1, 8),
		asset(chain1, 9),
		asset(chain1, 10),
		asset(chain1, 11),
	}

	got := Window(ids, ptr(chain1), DefaultLimit)

	want := []caip.AssetID{
		asset(chain1, 1),
		asset(chain1, 3),
		asset(chain1, 4),
		asset(chain1, 6),
		asset(chain1, 8),
		asset(chain1, 9),
		asset(chain1, 10),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Window mismatch (-want +got):\n%s", diff)
	}
}

func TestWindow_Empty(t *testing.T) {
	assert.Empty(t, Window(nil, nil, DefaultLimit))
	assert.Empty(t, Window([]caip.AssetID{}, ptr(chain1), DefaultLimit))
	assert.NotNil(t, Window(nil, ptr(chain1), DefaultLimit))
}

func TestWindow_NoPadding(t *testing.T) {
	ids := []caip.AssetID{asset(chain1, 1), asset(chain1, 2), asset(chain1, 3)}

	got := Window(ids, ptr(chain1), DefaultLimit)
	assert.Equal(t, ids, got)
}

func TestWindow_NoMatch(t *testing.T) {
	ids := []caip.AssetID{asset(chain1, 1), asset(chain1, 2)}
	assert.Empty(t, Window(ids, ptr(chain2), DefaultLimit))
}

func TestWindow_UndecodableNeverMatches(t *testing.T) {
	ids := []caip.AssetID{"garbage", asset(chain1, 1)}

	assert.Equal(t, []caip.AssetID{asset(chain1, 1)}, Window(ids, ptr(chain1), DefaultLimit))
	// without a selector nothing is decoded, so the id passes through
	assert.Equal(t, ids, Window(ids, nil, DefaultLimit))
}

func TestWindow_DoesNotAliasInput(t *testing.T) {
	ids := []caip.AssetID{asset(chain1, 1), asset(chain1, 2)}

	got := Window(ids, nil, DefaultLimit)
	got[0] = asset(chain2, 99)

	assert.Equal(t, asset(chain1, 1), ids[0])
}

func TestWindow_NonPositiveLimit(t *testing.T) {
	ids := []caip.AssetID{asset(chain1, 1)}
	assert.Empty(t, Window(ids, nil, 0))
	assert.Empty(t, Window(ids, nil, -3))
}

// randomIDs builds a deterministic mixed-chain list.
func randomIDs(r *rand.Rand, n int) []caip.AssetID {
	chains := []caip.ChainID{chain1, chain2, chain3}
	ids := make([]caip.AssetID, n)
	for i := range ids {
		ids[i] = asset(chains[r.IntN(len(chains))], i)
	}
	return ids
}

func TestWindow_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	selectors := []*caip.ChainID{nil, ptr(chain1), ptr(chain2), ptr(chain3)}

	for iter := 0; iter < 500; iter++ {
		ids := randomIDs(r, r.IntN(30))
		selector := selectors[r.IntN(len(selectors))]
		limit := 1 + r.IntN(12)

		got := Window(ids, selector, limit)

		// bounded
		require.LessOrEqual(t, len(got), limit)

		// no selector: plain prefix
		if selector == nil {
			require.Equal(t, ids[:min(limit, len(ids))], got)
		}

		// every retained id is on the selected chain
		if selector != nil {
			for _, id := range got {
				chainID, ok := caip.ChainOf(id)
				require.True(t, ok)
				require.Equal(t, *selector, chainID)
			}
		}

		// order preserving and a prefix of the filtered sequence
		var filtered []caip.AssetID
		for _, id := range ids {
			chainID, _ := caip.ChainOf(id)
			if selector == nil || chainID == *selector {
				filtered = append(filtered, id)
			}
		}
		if diff := cmp.Diff(filtered[:len(got)], got, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("not a prefix of the filtered sequence (-want +got):\n%s", diff)
		}

		// idempotent
		require.Equal(t, got, Window(ids, selector, limit))
	}
}

func TestMemo_RecomputesOnlyOnChange(t *testing.T) {
	ids := []caip.AssetID{asset(chain1, 1), asset(chain2, 2), asset(chain1, 3)}
	memo := NewMemo(0)

	first := memo.Get(ids, nil)
	second := memo.Get(ids, nil)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, memo.Computes())

	// equal selector value through a different pointer is a hit
	memo.Get(ids, ptr(chain1))
	memo.Get(ids, ptr(chain1))
	assert.Equal(t, 2, memo.Computes())

	// a new slice with equal contents is a miss (shallow comparison)
	fresh := append([]caip.AssetID(nil), ids...)
	got := memo.Get(fresh, ptr(chain1))
	assert.Equal(t, 3, memo.Computes())
	assert.Equal(t, []caip.AssetID{asset(chain1, 1), asset(chain1, 3)}, got)
}

func TestMemo_ComparesSliceIdentityNotContents(t *testing.T) {
	ids := []caip.AssetID{asset(chain1, 1), asset(chain2, 2)}
	memo := NewMemo(0)
	assert.Equal(t, []caip.AssetID{asset(chain1, 1)}, memo.Get(ids, ptr(chain1)))

	// in-place writes keep identity, so the cached window is served
	ids[0] = asset(chain2, 9)
	assert.Equal(t, []caip.AssetID{asset(chain1, 1)}, memo.Get(ids, ptr(chain1)))
	assert.Equal(t, 1, memo.Computes())

	// republishing as a new slice recomputes
	next := append([]caip.AssetID(nil), ids...)
	assert.Empty(t, memo.Get(next, ptr(chain1)))
	assert.Equal(t, 2, memo.Computes())
}
