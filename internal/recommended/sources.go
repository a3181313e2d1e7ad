package recommended

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/query"
)

// DefaultStaleTime is how long listings are served from cache.
const DefaultStaleTime = 5 * time.Minute

// MarketSource serves ranked spot listings.
type MarketSource interface {
	Markets(ctx context.Context, orderBy domain.OrderBy) (*domain.MarketList, error)
	TopMovers(ctx context.Context) (*domain.MarketList, error)
	Trending(ctx context.Context) (*domain.MarketList, error)
	RecentlyAdded(ctx context.Context) (*domain.MarketList, error)
}

// PortalsSource serves one-click DeFi assets. nil chainIDs means all chains.
type PortalsSource interface {
	Assets(ctx context.Context, chainIDs []caip.ChainID) (*domain.PortalsAssets, error)
}

// SaversSource serves THORChain savers pools and opportunities.
type SaversSource interface {
	SaversPools(ctx context.Context) ([]caip.AssetID, error)
	OpportunityIDs(ctx context.Context, key domain.OpportunityKey) ([]string, error)
	OpportunitiesMetadata(ctx context.Context, keys []domain.OpportunityKey) ([]domain.OpportunityMetadata, error)
}

// Query keys.
var (
	TopMoversKey     = query.Key("topMovers")
	TrendingKey      = query.Key("trending")
	RecentlyAddedKey = query.Key("recentlyAdded")
	SaversAssetsKey  = query.Key("thorchainAssets")
)

// MarketsKey is the query key of a markets listing.
func MarketsKey(orderBy domain.OrderBy) string {
	return query.Key("markets", string(orderBy))
}

// PortalsKey is the query key of a Portals listing for chainIDs.
func PortalsKey(chainIDs []caip.ChainID) string {
	if chainIDs == nil {
		return query.Key("portalsAssets", "all")
	}
	parts := make([]string, len(chainIDs))
	for i, c := range chainIDs {
		parts[i] = string(c)
	}
	return query.Key("portalsAssets", strings.Join(parts, ","))
}

// OpportunityIDsKey is the query key of an opportunity id listing.
func OpportunityIDsKey(key domain.OpportunityKey) string {
	return query.Key("opportunityIds", string(key.DefiType), string(key.DefiProvider))
}

// OpportunitiesMetadataKey is the query key of opportunity metadata for keys.
func OpportunitiesMetadataKey(keys []domain.OpportunityKey) string {
	parts := []string{"opportunitiesMetadata"}
	for _, k := range keys {
		parts = append(parts, string(k.DefiType)+"/"+string(k.DefiProvider))
	}
	return query.Key(parts...)
}

// selectorChains is the Portals chain filter for a row selector.
func selectorChains(selector *caip.ChainID) []caip.ChainID {
	if selector == nil {
		return nil
	}
	return []caip.ChainID{*selector}
}

// SourcesOptions configures Sources.
type SourcesOptions struct {
	Query     *query.Client
	Markets   MarketSource
	Portals   PortalsSource
	Savers    SaversSource
	StaleTime time.Duration // 0 uses DefaultStaleTime
	Logger    *zap.Logger
}

// Sources is the data source for every row. Fetch methods block and fill
// the query cache; the remaining methods read the cache without blocking.
type Sources struct {
	query     *query.Client
	markets   MarketSource
	portals   PortalsSource
	savers    SaversSource
	staleTime time.Duration
	logger    *zap.Logger
}

// NewSources creates Sources. A nil Query gets a private client.
func NewSources(opts SourcesOptions) *Sources {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	q := opts.Query
	if q == nil {
		q = query.NewClient(query.ClientOptions{Logger: logger})
	}
	stale := opts.StaleTime
	if stale == 0 {
		stale = DefaultStaleTime
	}
	return &Sources{
		query:     q,
		markets:   opts.Markets,
		portals:   opts.Portals,
		savers:    opts.Savers,
		staleTime: stale,
		logger:    logger.Named("sources"),
	}
}

// Query returns the underlying query client.
func (s *Sources) Query() *query.Client {
	return s.query
}

// categoryQuery returns the cache key, stale time and fetch func of a category.
func (s *Sources) categoryQuery(cat domain.Category) (string, time.Duration, query.FetchFunc, error) {
	switch cat {
	case domain.CategoryTradingVolume, domain.CategoryMarketCap:
		orderBy := domain.OrderByVolumeDesc
		if cat == domain.CategoryMarketCap {
			orderBy = domain.OrderByMarketCapDesc
		}
		return MarketsKey(orderBy), s.staleTime, func(ctx context.Context) (any, error) {
			return s.markets.Markets(ctx, orderBy)
		}, nil
	case domain.CategoryTrending:
		return TrendingKey, s.staleTime, func(ctx context.Context) (any, error) {
			return s.markets.Trending(ctx)
		}, nil
	case domain.CategoryTopMovers:
		return TopMoversKey, s.staleTime, func(ctx context.Context) (any, error) {
			return s.markets.TopMovers(ctx)
		}, nil
	case domain.CategoryRecentlyAdded:
		return RecentlyAddedKey, s.staleTime, func(ctx context.Context) (any, error) {
			return s.markets.RecentlyAdded(ctx)
		}, nil
	case domain.CategoryOneClickDefi:
		return PortalsKey(nil), s.staleTime, func(ctx context.Context) (any, error) {
			return s.portals.Assets(ctx, nil)
		}, nil
	case domain.CategoryThorchainSavers:
		return SaversAssetsKey, query.StaleInfinite, func(ctx context.Context) (any, error) {
			return s.savers.SaversPools(ctx)
		}, nil
	}
	return "", 0, nil, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
}

// FetchCategory loads a category's listing into the cache and returns its ids.
func (s *Sources) FetchCategory(ctx context.Context, cat domain.Category, opts query.Options) ([]caip.AssetID, error) {
	key, stale, fn, err := s.categoryQuery(cat)
	if err != nil {
		return nil, err
	}
	data, err := s.query.Fetch(ctx, key, stale, fn, opts)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", cat, err)
	}
	return idsOf(data), nil
}

// Category returns the cached result set of a category.
func (s *Sources) Category(cat domain.Category) domain.ResultSet {
	key, _, _, err := s.categoryQuery(cat)
	if err != nil {
		return domain.ResultSet{IDs: []caip.AssetID{}}
	}
	res := s.query.Snapshot(key)
	return domain.ResultSet{IDs: idsOf(res.Data), IsLoading: res.IsLoading}
}

// Warm seeds a category's listing from stored ids when nothing is cached.
// metrics fills the one-click DeFi listing and may be nil. The seeded
// listing is stale once fetchedAt is older than the category's stale time.
func (s *Sources) Warm(cat domain.Category, ids []caip.AssetID, metrics map[caip.AssetID]domain.OpportunityMetrics, fetchedAt time.Time) (bool, error) {
	key, _, _, err := s.categoryQuery(cat)
	if err != nil {
		return false, err
	}
	if ids == nil {
		ids = []caip.AssetID{}
	}

	var data any
	switch cat {
	case domain.CategoryOneClickDefi:
		assets := &domain.PortalsAssets{IDs: ids, ByID: make(map[caip.AssetID]domain.PortalsAsset, len(ids)), ChainIDs: []caip.ChainID{}}
		seen := make(map[caip.ChainID]bool)
		for _, id := range ids {
			if m, ok := metrics[id]; ok {
				assets.ByID[id] = domain.PortalsAsset{AssetID: id, Metrics: m}
			}
			if chainID, ok := caip.ChainOf(id); ok && !seen[chainID] {
				seen[chainID] = true
				assets.ChainIDs = append(assets.ChainIDs, chainID)
			}
		}
		data = assets
	case domain.CategoryThorchainSavers:
		data = ids
	default:
		data = &domain.MarketList{IDs: ids, ByID: map[caip.AssetID]domain.MarketData{}}
	}
	return s.query.Seed(key, data, fetchedAt), nil
}

// CategoryErr returns the last fetch error of a category when nothing is
// cached for it. Stale data wins over a failed refetch.
func (s *Sources) CategoryErr(cat domain.Category) error {
	key, _, _, err := s.categoryQuery(cat)
	if err != nil {
		return err
	}
	res := s.query.Snapshot(key)
	if res.Data != nil {
		return nil
	}
	return res.Err
}

// MarketData returns cached spot data of a category's asset, if any.
func (s *Sources) MarketData(cat domain.Category, id caip.AssetID) (domain.MarketData, bool) {
	key, _, _, err := s.categoryQuery(cat)
	if err != nil {
		return domain.MarketData{}, false
	}
	list, _ := query.Get[*domain.MarketList](s.query, key)
	if list == nil {
		return domain.MarketData{}, false
	}
	md, ok := list.ByID[id]
	return md, ok
}

// FetchPortals loads the Portals listing for chainIDs.
func (s *Sources) FetchPortals(ctx context.Context, chainIDs []caip.ChainID, opts query.Options) (*domain.PortalsAssets, error) {
	return query.Fetch(ctx, s.query, PortalsKey(chainIDs), s.staleTime, func(ctx context.Context) (*domain.PortalsAssets, error) {
		return s.portals.Assets(ctx, chainIDs)
	}, opts)
}

// Portals returns the cached Portals listing for chainIDs, or nil.
func (s *Sources) Portals(chainIDs []caip.ChainID) (*domain.PortalsAssets, query.Result) {
	return query.Get[*domain.PortalsAssets](s.query, PortalsKey(chainIDs))
}

// FetchOpportunityIDs refreshes the opportunity id listing for key.
func (s *Sources) FetchOpportunityIDs(ctx context.Context, key domain.OpportunityKey, opts query.Options) ([]string, error) {
	return query.Fetch(ctx, s.query, OpportunityIDsKey(key), s.staleTime, func(ctx context.Context) ([]string, error) {
		return s.savers.OpportunityIDs(ctx, key)
	}, opts)
}

// FetchOpportunitiesMetadata refreshes opportunity metadata for keys.
func (s *Sources) FetchOpportunitiesMetadata(ctx context.Context, keys []domain.OpportunityKey, opts query.Options) ([]domain.OpportunityMetadata, error) {
	return query.Fetch(ctx, s.query, OpportunitiesMetadataKey(keys), s.staleTime, func(ctx context.Context) ([]domain.OpportunityMetadata, error) {
		return s.savers.OpportunitiesMetadata(ctx, keys)
	}, opts)
}

// OpportunitiesMetadata returns cached opportunity metadata for keys.
func (s *Sources) OpportunitiesMetadata(keys []domain.OpportunityKey) []domain.OpportunityMetadata {
	meta, _ := query.Get[[]domain.OpportunityMetadata](s.query, OpportunitiesMetadataKey(keys))
	return meta
}

// idsOf extracts the ranked ids of any cached listing. The returned slice
// is the cached one, so its identity is stable until the next refetch.
func idsOf(data any) []caip.AssetID {
	switch d := data.(type) {
	case *domain.MarketList:
		if d != nil && d.IDs != nil {
			return d.IDs
		}
	case *domain.PortalsAssets:
		if d != nil && d.IDs != nil {
			return d.IDs
		}
	case []caip.AssetID:
		if d != nil {
			return d
		}
	}
	return []caip.AssetID{}
}
