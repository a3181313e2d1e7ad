package recommended

import (
	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/window"
)

// Grid layout: nine columns by two rows on wide screens.
const (
	GridColumns = 9
	GridRows    = 2

	// SkeletonCount is the number of placeholder cells while loading.
	SkeletonCount = 8

	sparklineColSpan = 3
	sparklineRowSpan = 2
	cardColSpan      = 2
)

// CellKind is how a grid cell renders.
type CellKind int

const (
	CellSkeleton CellKind = iota
	CellSparkline
	CellAsset
	CellLp
)

func (k CellKind) String() string {
	switch k {
	case CellSkeleton:
		return "skeleton"
	case CellSparkline:
		return "sparkline"
	case CellAsset:
		return "asset"
	case CellLp:
		return "lp"
	}
	return "unknown"
}

// Cell is one card of a grid.
type Cell struct {
	Kind    CellKind
	AssetID caip.AssetID
	Index   int
	ColSpan int
	RowSpan int

	// LP metrics; nil when the asset has no Portals listing.
	APY    *float64
	Volume *float64
}

// Grid is the rendered content of a row for one selector.
type Grid struct {
	Category domain.Category
	Selector *caip.ChainID
	Loading  bool
	Cells    []Cell
	// Err is the listing's fetch error when it has no cached data.
	Err error
}

// AssetIDs returns the ids of non-skeleton cells in order.
func (g Grid) AssetIDs() []caip.AssetID {
	ids := make([]caip.AssetID, 0, len(g.Cells))
	for _, c := range g.Cells {
		if c.Kind != CellSkeleton {
			ids = append(ids, c.AssetID)
		}
	}
	return ids
}

func skeletonCells() []Cell {
	cells := make([]Cell, SkeletonCount)
	for i := range cells {
		span := cardColSpan
		if i == 0 {
			span = sparklineColSpan
		}
		cells[i] = Cell{Kind: CellSkeleton, AssetID: caip.ETHAssetID, Index: i, ColSpan: span, RowSpan: 1}
	}
	return cells
}

// AssetsGrid lays out a spot listing: the first windowed asset as a
// sparkline card, the rest as asset cards.
func AssetsGrid(set domain.ResultSet, selector *caip.ChainID, memo *window.Memo) Grid {
	g := Grid{Selector: selector, Loading: set.IsLoading}
	if set.IsLoading {
		g.Cells = skeletonCells()
		return g
	}

	ids := windowed(set.IDs, selector, memo)
	g.Cells = make([]Cell, len(ids))
	for i, id := range ids {
		if i == 0 {
			g.Cells[i] = Cell{Kind: CellSparkline, AssetID: id, Index: i, ColSpan: sparklineColSpan, RowSpan: sparklineRowSpan}
			continue
		}
		g.Cells[i] = Cell{Kind: CellAsset, AssetID: id, Index: i, ColSpan: cardColSpan, RowSpan: 1}
	}
	return g
}

// LpGrid lays out a DeFi listing. Metrics come from metrics, which may be
// nil while the Portals listing loads.
func LpGrid(set domain.ResultSet, selector *caip.ChainID, metrics *domain.PortalsAssets, memo *window.Memo) Grid {
	g := Grid{Selector: selector, Loading: set.IsLoading}
	if set.IsLoading {
		g.Cells = skeletonCells()
		return g
	}

	ids := windowed(set.IDs, selector, memo)
	g.Cells = make([]Cell, len(ids))
	for i, id := range ids {
		span, rows := cardColSpan, 1
		if i == 0 {
			span, rows = sparklineColSpan, sparklineRowSpan
		}
		cell := Cell{Kind: CellLp, AssetID: id, Index: i, ColSpan: span, RowSpan: rows}
		if metrics != nil {
			if asset, ok := metrics.ByID[id]; ok {
				apy, vol := asset.Metrics.APY, asset.Metrics.VolumeUSD1d
				cell.APY, cell.Volume = &apy, &vol
			}
		}
		g.Cells[i] = cell
	}
	return g
}

func windowed(ids []caip.AssetID, selector *caip.ChainID, memo *window.Memo) []caip.AssetID {
	if memo == nil {
		return window.Window(ids, selector, window.DefaultLimit)
	}
	return memo.Get(ids, selector)
}
