package recommended

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
)

func evmToken(chainID caip.ChainID, n int) caip.AssetID {
	return caip.MustAssetID(chainID, caip.AssetNamespaceERC20, fmt.Sprintf("0x%040x", n))
}

func marketList(ids ...caip.AssetID) *domain.MarketList {
	l := &domain.MarketList{IDs: ids, ByID: map[caip.AssetID]domain.MarketData{}}
	for i, id := range ids {
		l.ByID[id] = domain.MarketData{AssetID: id, Price: float64(i + 1)}
	}
	return l
}

type fakeMarkets struct {
	lists map[string]*domain.MarketList
	err   error
	// failOn limits err to one listing; empty fails them all.
	failOn string
	calls  atomic.Int32
}

func (f *fakeMarkets) get(name string) (*domain.MarketList, error) {
	f.calls.Add(1)
	if f.err != nil && (f.failOn == "" || f.failOn == name) {
		return nil, f.err
	}
	if l, ok := f.lists[name]; ok {
		return l, nil
	}
	return marketList(), nil
}

func (f *fakeMarkets) Markets(_ context.Context, orderBy domain.OrderBy) (*domain.MarketList, error) {
	return f.get(string(orderBy))
}

func (f *fakeMarkets) TopMovers(context.Context) (*domain.MarketList, error) {
	return f.get("topMovers")
}

func (f *fakeMarkets) Trending(context.Context) (*domain.MarketList, error) {
	return f.get("trending")
}

func (f *fakeMarkets) RecentlyAdded(context.Context) (*domain.MarketList, error) {
	return f.get("recentlyAdded")
}

type fakePortals struct {
	assets []domain.PortalsAsset
}

func (f *fakePortals) Assets(_ context.Context, chainIDs []caip.ChainID) (*domain.PortalsAssets, error) {
	out := &domain.PortalsAssets{IDs: []caip.AssetID{}, ByID: map[caip.AssetID]domain.PortalsAsset{}, ChainIDs: []caip.ChainID{}}
	seen := map[caip.ChainID]bool{}
	for _, a := range f.assets {
		chainID, _ := caip.ChainOf(a.AssetID)
		if chainIDs != nil && !containsChain(chainIDs, chainID) {
			continue
		}
		out.IDs = append(out.IDs, a.AssetID)
		out.ByID[a.AssetID] = a
		if !seen[chainID] {
			seen[chainID] = true
			out.ChainIDs = append(out.ChainIDs, chainID)
		}
	}
	return out, nil
}

func containsChain(list []caip.ChainID, c caip.ChainID) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

type fakeSavers struct {
	pools []caip.AssetID

	mu        sync.Mutex
	order     []string
	block     chan struct{}
	idsCalls  atomic.Int32
	metaCalls atomic.Int32
}

func (f *fakeSavers) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, call)
}

func (f *fakeSavers) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func (f *fakeSavers) SaversPools(context.Context) ([]caip.AssetID, error) {
	f.record("pools")
	return f.pools, nil
}

func (f *fakeSavers) OpportunityIDs(context.Context, domain.OpportunityKey) ([]string, error) {
	f.idsCalls.Add(1)
	f.record("ids")
	if f.block != nil {
		<-f.block
	}
	ids := make([]string, len(f.pools))
	for i, p := range f.pools {
		ids[i] = string(p)
	}
	return ids, nil
}

func (f *fakeSavers) OpportunitiesMetadata(_ context.Context, keys []domain.OpportunityKey) ([]domain.OpportunityMetadata, error) {
	f.metaCalls.Add(1)
	f.record("metadata")
	out := make([]domain.OpportunityMetadata, 0, len(f.pools))
	for _, p := range f.pools {
		out = append(out, domain.OpportunityMetadata{ID: string(p), AssetID: p, APY: 0.05})
	}
	return out, nil
}

type recordingNavigator struct {
	paths []string
}

func (n *recordingNavigator) Push(path string) {
	n.paths = append(n.paths, path)
}
