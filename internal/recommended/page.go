// Package recommended assembles the markets "Recommended" page: seven
// ranked rows, each windowed to the chain picked in its dropdown.
package recommended

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/i18n"
	"markets-lab/internal/query"
	"markets-lab/internal/router"
	"markets-lab/internal/state"
	"markets-lab/internal/window"
)

// ErrUnknownCategory is returned for a category outside domain.AllCategories.
var ErrUnknownCategory = errors.New("unknown category")

// TrendingPercentage is interpolated into the trending subtitle.
const TrendingPercentage = "10"

// Row is one section of the page.
type Row struct {
	Category domain.Category
	Title    string
	Subtitle string
	// SupportedChainIDs restricts the dropdown; nil offers every known chain.
	SupportedChainIDs []caip.ChainID
}

type rowSpec struct {
	category    domain.Category
	titleKey    string
	subtitleKey string
	vars        i18n.Vars
}

var rowSpecs = []rowSpec{
	{domain.CategoryTradingVolume, "markets.categories.tradingVolume.title", "markets.categories.tradingVolume.subtitle", nil},
	{domain.CategoryMarketCap, "markets.categories.marketCap.title", "markets.categories.marketCap.subtitle", nil},
	{domain.CategoryTrending, "markets.categories.trending.title", "markets.categories.trending.subtitle", i18n.Vars{"percentage": TrendingPercentage}},
	{domain.CategoryTopMovers, "markets.categories.topMovers.title", "", nil},
	{domain.CategoryRecentlyAdded, "markets.categories.recentlyAdded.title", "", nil},
	{domain.CategoryOneClickDefi, "markets.categories.oneClickDefiAssets.title", "", nil},
	{domain.CategoryThorchainSavers, "markets.categories.thorchainDefi.title", "", nil},
}

// PageOptions configures a Page.
type PageOptions struct {
	Sources    *Sources
	Store      *state.Store
	Translator i18n.Translator
	Navigator  router.Navigator
	// SaversChainIDs are the chains of the THORChain savers row.
	SaversChainIDs []caip.ChainID
	Logger         *zap.Logger
}

type memoKey struct {
	category domain.Category
	selector caip.ChainID // "" for all chains
	limit    int
}

// Page is the Recommended page. It is safe for concurrent use.
type Page struct {
	sources    *Sources
	store      *state.Store
	translator i18n.Translator
	navigator  router.Navigator
	saversIDs  []caip.ChainID
	savers     *ThorchainSavers
	logger     *zap.Logger

	mu         sync.Mutex
	windows    map[memoKey]*window.Memo
	chainLists map[domain.Category]*chainListMemo
}

// NewPage creates a Page.
func NewPage(opts PageOptions) *Page {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tr := opts.Translator
	if tr == nil {
		tr = i18n.English()
	}
	store := opts.Store
	if store == nil {
		store = state.New()
	}
	return &Page{
		sources:    opts.Sources,
		store:      store,
		translator: tr,
		navigator:  opts.Navigator,
		saversIDs:  opts.SaversChainIDs,
		savers:     NewThorchainSavers(opts.Sources, logger),
		logger:     logger.Named("recommended"),
		windows:    make(map[memoKey]*window.Memo),
		chainLists: make(map[domain.Category]*chainListMemo),
	}
}

// Sources returns the page's data sources.
func (p *Page) Sources() *Sources {
	return p.sources
}

// Savers returns the savers activation task.
func (p *Page) Savers() *ThorchainSavers {
	return p.savers
}

// Mount starts the savers refresh. Pair with Unmount.
func (p *Page) Mount(ctx context.Context) {
	p.savers.Activate(ctx)
}

// Unmount cancels the savers refresh.
func (p *Page) Unmount() {
	p.savers.Deactivate()
}

// Rows returns the page rows in display order.
func (p *Page) Rows() []Row {
	rows := make([]Row, len(rowSpecs))
	for i, spec := range rowSpecs {
		row := Row{
			Category: spec.category,
			Title:    p.translator.T(spec.titleKey),
		}
		if spec.subtitleKey != "" {
			row.Subtitle = p.translator.T(spec.subtitleKey, spec.vars)
		}
		switch spec.category {
		case domain.CategoryOneClickDefi:
			// Every chain with a Portals listing; nil until the all-chain listing loads.
			if all, _ := p.sources.Portals(nil); all != nil {
				row.SupportedChainIDs = all.ChainIDs
			}
		case domain.CategoryThorchainSavers:
			row.SupportedChainIDs = p.saversIDs
		}
		rows[i] = row
	}
	return rows
}

// Row returns the row of a category.
func (p *Page) Row(cat domain.Category) (Row, error) {
	for _, row := range p.Rows() {
		if row.Category == cat {
			return row, nil
		}
	}
	return Row{}, ErrUnknownCategory
}

// ChainIDs returns the dropdown chains of a row under the current flags.
func (p *Page) ChainIDs(row Row) []caip.ChainID {
	nova := state.Select(p.store, state.SelectFeatureFlag(state.FlagArbitrumNova))
	solana := state.Select(p.store, state.SelectFeatureFlag(state.FlagSolana))

	p.mu.Lock()
	memo, ok := p.chainLists[row.Category]
	if !ok {
		memo = &chainListMemo{}
		p.chainLists[row.Category] = memo
	}
	p.mu.Unlock()

	return memo.get(row.SupportedChainIDs, nova, solana)
}

// Grid renders a category for selector from cached data, windowed to
// window.DefaultLimit. Cells of a memoized grid share backing arrays;
// callers must not mutate.
func (p *Page) Grid(cat domain.Category, selector *caip.ChainID) (Grid, error) {
	return p.GridWindow(cat, selector, window.DefaultLimit)
}

// GridWindow is Grid with an explicit window size. limit <= 0 uses
// window.DefaultLimit. A listing that failed with nothing cached sets Err.
func (p *Page) GridWindow(cat domain.Category, selector *caip.ChainID, limit int) (Grid, error) {
	if !cat.IsValid() {
		return Grid{}, ErrUnknownCategory
	}
	if limit <= 0 {
		limit = window.DefaultLimit
	}
	memo := p.memo(cat, selector, limit)

	var g Grid
	switch cat {
	case domain.CategoryOneClickDefi:
		// The listing itself is queried for the selected chain only.
		assets, res := p.sources.Portals(selectorChains(selector))
		set := domain.ResultSet{IDs: idsOf(assets), IsLoading: res.IsLoading}
		g = LpGrid(set, selector, assets, memo)
		if assets == nil {
			g.Err = res.Err
		}
	case domain.CategoryThorchainSavers:
		metrics, _ := p.sources.Portals(selectorChains(selector))
		g = LpGrid(p.sources.Category(cat), selector, metrics, memo)
		g.Err = p.sources.CategoryErr(cat)
	default:
		g = AssetsGrid(p.sources.Category(cat), selector, memo)
		g.Err = p.sources.CategoryErr(cat)
	}
	g.Category = cat
	return g, nil
}

func (p *Page) memo(cat domain.Category, selector *caip.ChainID, limit int) *window.Memo {
	key := memoKey{category: cat, limit: limit}
	if selector != nil {
		key.selector = *selector
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.windows[key]
	if !ok {
		m = window.NewMemo(limit)
		p.windows[key] = m
	}
	return m
}

// Load fetches every row's listing concurrently, plus the Portals listing
// for selector when one is set. All fetches run to completion; the first
// error is returned.
func (p *Page) Load(ctx context.Context, selector *caip.ChainID, opts query.Options) error {
	var g errgroup.Group
	g.SetLimit(4)

	for _, cat := range domain.AllCategories {
		g.Go(func() error {
			_, err := p.sources.FetchCategory(ctx, cat, opts)
			return err
		})
	}
	if selector != nil {
		g.Go(func() error {
			_, err := p.sources.FetchPortals(ctx, selectorChains(selector), opts)
			return err
		})
	}

	err := g.Wait()
	if err != nil {
		p.logger.Warn("page load incomplete", zap.Error(err))
	}
	return err
}

// LoadGrid fetches the data one row needs for selector.
func (p *Page) LoadGrid(ctx context.Context, cat domain.Category, selector *caip.ChainID, opts query.Options) error {
	if !cat.IsValid() {
		return ErrUnknownCategory
	}

	var g errgroup.Group
	if cat != domain.CategoryOneClickDefi {
		g.Go(func() error {
			_, err := p.sources.FetchCategory(ctx, cat, opts)
			return err
		})
	}
	if cat.IsDefi() {
		g.Go(func() error {
			_, err := p.sources.FetchPortals(ctx, selectorChains(selector), opts)
			return err
		})
	}
	return g.Wait()
}

// OpenAsset navigates to an asset's page.
func (p *Page) OpenAsset(id caip.AssetID) {
	if p.navigator != nil {
		p.navigator.Push(router.AssetPath(string(id)))
	}
}
