package ui

import (
	"context"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/recommended"
	"markets-lab/internal/router"
	"markets-lab/internal/state"
)

type staticMarkets struct {
	list *domain.MarketList
}

func (s staticMarkets) Markets(context.Context, domain.OrderBy) (*domain.MarketList, error) {
	return s.list, nil
}

func (s staticMarkets) TopMovers(context.Context) (*domain.MarketList, error) { return s.list, nil }
func (s staticMarkets) Trending(context.Context) (*domain.MarketList, error)  { return s.list, nil }

func (s staticMarkets) RecentlyAdded(context.Context) (*domain.MarketList, error) {
	return s.list, nil
}

// failingTrending serves every listing except trending.
type failingTrending struct {
	staticMarkets
	err error
}

func (f failingTrending) Trending(context.Context) (*domain.MarketList, error) {
	return nil, f.err
}

type emptyPortals struct{}

func (emptyPortals) Assets(context.Context, []caip.ChainID) (*domain.PortalsAssets, error) {
	return &domain.PortalsAssets{IDs: []caip.AssetID{}, ByID: map[caip.AssetID]domain.PortalsAsset{}, ChainIDs: []caip.ChainID{}}, nil
}

type emptySavers struct{}

func (emptySavers) SaversPools(context.Context) ([]caip.AssetID, error) {
	return []caip.AssetID{}, nil
}

func (emptySavers) OpportunityIDs(context.Context, domain.OpportunityKey) ([]string, error) {
	return []string{}, nil
}

func (emptySavers) OpportunitiesMetadata(context.Context, []domain.OpportunityKey) ([]domain.OpportunityMetadata, error) {
	return []domain.OpportunityMetadata{}, nil
}

func seededStore() *state.Store {
	s := state.New()
	s.UpsertAssets(state.FeeAssets()...)
	return s
}

func testMarketList() *domain.MarketList {
	return &domain.MarketList{
		IDs: []caip.AssetID{caip.BTCAssetID, caip.ETHAssetID, caip.SOLAssetID},
		ByID: map[caip.AssetID]domain.MarketData{
			caip.BTCAssetID: {AssetID: caip.BTCAssetID, Price: 65000, MarketCap: 1.2e12, Volume: 3e10, ChangePercent24Hr: 2.5, Sparkline: []float64{1, 2, 3}},
			caip.ETHAssetID: {AssetID: caip.ETHAssetID, Price: 3000, ChangePercent24Hr: -1.25},
			caip.SOLAssetID: {AssetID: caip.SOLAssetID, Price: 150},
		},
	}
}

func newTestPage(store *state.Store, history *router.History) *recommended.Page {
	return newTestPageWith(store, history, staticMarkets{list: testMarketList()})
}

func newTestPageWith(store *state.Store, history *router.History, markets recommended.MarketSource) *recommended.Page {
	sources := recommended.NewSources(recommended.SourcesOptions{
		Markets: markets,
		Portals: emptyPortals{},
		Savers:  emptySavers{},
	})
	return recommended.NewPage(recommended.PageOptions{
		Sources:   sources,
		Store:     store,
		Navigator: history,
	})
}
