// Package window selects the bounded, chain-filtered prefix of a ranked
// asset list that a markets grid displays.
package window

import (
	"sync"

	"markets-lab/internal/caip"
)

// DefaultLimit is the number of cards a markets grid shows.
const DefaultLimit = 7

// Window returns at most limit ids from ids, keeping only those on selector
// when selector is non-nil. Relative order is preserved and the result is
// always a prefix of the filtered sequence. Ids that cannot be decoded never
// match a selector. The returned slice never aliases ids.
func Window(ids []caip.AssetID, selector *caip.ChainID, limit int) []caip.AssetID {
	if limit <= 0 {
		return []caip.AssetID{}
	}

	out := make([]caip.AssetID, 0, min(limit, len(ids)))
	for _, id := range ids {
		if len(out) == limit {
			break
		}
		if selector != nil {
			chainID, ok := caip.ChainOf(id)
			if !ok || chainID != *selector {
				continue
			}
		}
		out = append(out, id)
	}
	return out
}

// Memo caches the last Window result and recomputes only when the inputs
// change. Inputs are compared shallowly: the ids slice by backing array,
// length and the selector by value. Callers must treat an ids slice as
// immutable once passed to Get: rewriting its elements in place is not
// detected and Get keeps returning the old window. Publish new data as a
// new slice.
type Memo struct {
	limit int

	mu       sync.Mutex
	valid    bool
	ids      []caip.AssetID
	selector *caip.ChainID
	result   []caip.AssetID
	computes int
}

// NewMemo creates a Memo with the given limit. limit <= 0 uses DefaultLimit.
func NewMemo(limit int) *Memo {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Memo{limit: limit}
}

// Get returns the window for (ids, selector), reusing the previous result
// when neither input changed.
func (m *Memo) Get(ids []caip.AssetID, selector *caip.ChainID) []caip.AssetID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && sameSlice(m.ids, ids) && sameSelector(m.selector, selector) {
		return m.result
	}

	m.ids = ids
	m.selector = copySelector(selector)
	m.result = Window(ids, selector, m.limit)
	m.valid = true
	m.computes++
	return m.result
}

// Computes returns how many times the window was recomputed.
func (m *Memo) Computes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computes
}

func sameSlice(a, b []caip.AssetID) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

func sameSelector(a, b *caip.ChainID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copySelector(s *caip.ChainID) *caip.ChainID {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
