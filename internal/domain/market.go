package domain

import "markets-lab/internal/caip"

// MarketData is the spot market view of one asset.
type MarketData struct {
	AssetID           caip.AssetID
	Price             float64
	MarketCap         float64
	Volume            float64
	ChangePercent24Hr float64
	Sparkline         []float64 // 7d hourly prices, oldest first
}

// MarketList is an ordered market listing. IDs carries the rank order.
type MarketList struct {
	IDs  []caip.AssetID
	ByID map[caip.AssetID]MarketData
}

// OrderBy selects the market listing sort order.
type OrderBy string

const (
	OrderByVolumeDesc    OrderBy = "volume_desc"
	OrderByMarketCapDesc OrderBy = "market_cap_desc"
)

// CategorySnapshot is the ranked id list of a category at a point in time.
// Corresponds to category_snapshots table in PostgreSQL.
type CategorySnapshot struct {
	SnapshotID string         // PRIMARY KEY, deterministic hash
	Category   Category       // listing category
	AssetIDs   []caip.AssetID // ranked, order significant
	FetchedAt  int64          // when the listing was fetched (ms)
	CreatedAt  int64          // record creation timestamp (ms)
}

// ResultSet is a category's ranked ids as seen by a render pass.
// IDs is treated as immutable once handed out.
type ResultSet struct {
	IDs       []caip.AssetID
	IsLoading bool
}
