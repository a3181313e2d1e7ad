package domain

import "markets-lab/internal/caip"

// DefiType classifies a yield opportunity.
type DefiType string

const (
	DefiTypeStaking       DefiType = "staking"
	DefiTypeLiquidityPool DefiType = "lp"
)

// DefiProvider names the protocol offering an opportunity.
type DefiProvider string

const (
	DefiProviderThorchainSavers DefiProvider = "THORChain Savers"
	DefiProviderPortals         DefiProvider = "Portals"
)

// OpportunityMetrics are the secondary metrics shown on DeFi cards.
type OpportunityMetrics struct {
	APY         float64 // annual percentage yield as a fraction (0.05 = 5%)
	VolumeUSD1d float64 // 24h volume in USD
}

// PortalsAsset is a one-click DeFi asset listed by Portals.
type PortalsAsset struct {
	AssetID caip.AssetID
	Name    string
	Symbol  string
	Metrics OpportunityMetrics
}

// PortalsAssets is a Portals listing ordered by volume desc.
type PortalsAssets struct {
	IDs      []caip.AssetID
	ByID     map[caip.AssetID]PortalsAsset
	ChainIDs []caip.ChainID // distinct chains present in IDs, first-seen order
}

// OpportunityKey selects a provider's opportunities.
type OpportunityKey struct {
	DefiType     DefiType
	DefiProvider DefiProvider
}

// OpportunityMetadata describes one yield opportunity.
type OpportunityMetadata struct {
	ID              string
	AssetID         caip.AssetID
	UnderlyingAsset caip.AssetID
	Provider        DefiProvider
	Type            DefiType
	APY             float64
	TVL             float64
	Name            string
}

// MetricsPoint is a sampled OpportunityMetrics value.
// Corresponds to opportunity_metrics table in ClickHouse.
type MetricsPoint struct {
	AssetID     caip.AssetID
	Category    Category
	TimestampMs int64
	APY         float64
	VolumeUSD1d float64
}
