package recommended

import (
	"sync"

	"markets-lab/internal/caip"
)

// RowChainIDs returns the chains a row's dropdown offers. A nil supported
// list means every known chain, with Arbitrum Nova and Solana gated behind
// their flags. A non-nil list, even an empty one, is returned as is.
func RowChainIDs(supported []caip.ChainID, arbitrumNova, solana bool) []caip.ChainID {
	if supported != nil {
		return supported
	}
	out := make([]caip.ChainID, 0, len(caip.KnownChainIDs))
	for _, chainID := range caip.KnownChainIDs {
		if !arbitrumNova && chainID == caip.ArbitrumNovaMainnet {
			continue
		}
		if !solana && chainID == caip.SolanaMainnet {
			continue
		}
		out = append(out, chainID)
	}
	return out
}

// chainListMemo caches RowChainIDs until the flags or the supported
// list (by identity) change.
type chainListMemo struct {
	mu        sync.Mutex
	valid     bool
	supported []caip.ChainID
	nova      bool
	solana    bool
	result    []caip.ChainID
	computes  int
}

func (m *chainListMemo) get(supported []caip.ChainID, nova, solana bool) []caip.ChainID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && sameChains(m.supported, supported) && m.nova == nova && m.solana == solana {
		return m.result
	}
	m.supported = supported
	m.nova = nova
	m.solana = solana
	m.result = RowChainIDs(supported, nova, solana)
	m.valid = true
	m.computes++
	return m.result
}

func sameChains(a, b []caip.ChainID) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}
