package domain

import "markets-lab/internal/caip"

// Asset is the display metadata for a tradeable asset.
// Corresponds to assets table in PostgreSQL.
type Asset struct {
	AssetID     caip.AssetID // PRIMARY KEY, CAIP-19
	ChainID     caip.ChainID // chain component of AssetID
	Symbol      string
	Name        string
	NetworkName *string // network display name for fee assets (nullable)
	Precision   int     // decimals
	Color       string  // hex display color
	Icon        string  // icon url
	UpdatedAt   int64   // last upsert timestamp (ms)
}

// DisplayNetworkName returns NetworkName, falling back to Name.
func (a *Asset) DisplayNetworkName() string {
	if a.NetworkName != nil && *a.NetworkName != "" {
		return *a.NetworkName
	}
	return a.Name
}
