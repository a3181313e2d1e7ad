package state

import (
	"context"
	"errors"
	"fmt"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/storage"
)

func strPtr(s string) *string { return &s }

// FeeAssets returns display metadata for the fee asset of every known chain.
// Only L2s and sidechains that share a symbol carry a NetworkName.
func FeeAssets() []*domain.Asset {
	return []*domain.Asset{
		{AssetID: caip.ETHAssetID, ChainID: caip.EthereumMainnet, Symbol: "ETH", Name: "Ethereum", Precision: 18, Color: "#5C6BC0"},
		{AssetID: caip.AVAXAssetID, ChainID: caip.AvalancheMainnet, Symbol: "AVAX", Name: "Avalanche", Precision: 18, Color: "#FF5252"},
		{AssetID: caip.OptimismAssetID, ChainID: caip.OptimismMainnet, Symbol: "ETH", Name: "Ethereum", NetworkName: strPtr("Optimism"), Precision: 18, Color: "#FF0421"},
		{AssetID: caip.BSCAssetID, ChainID: caip.BnbSmartChainMainnet, Symbol: "BNB", Name: "BNB", NetworkName: strPtr("BNB Smart Chain"), Precision: 18, Color: "#F0B90B"},
		{AssetID: caip.PolygonAssetID, ChainID: caip.PolygonMainnet, Symbol: "MATIC", Name: "Polygon", Precision: 18, Color: "#8247E5"},
		{AssetID: caip.GnosisAssetID, ChainID: caip.GnosisMainnet, Symbol: "xDAI", Name: "xDAI", NetworkName: strPtr("Gnosis"), Precision: 18, Color: "#33765C"},
		{AssetID: caip.ArbitrumAssetID, ChainID: caip.ArbitrumMainnet, Symbol: "ETH", Name: "Ethereum", NetworkName: strPtr("Arbitrum One"), Precision: 18, Color: "#28A0F0"},
		{AssetID: caip.ArbitrumNovaAssetID, ChainID: caip.ArbitrumNovaMainnet, Symbol: "ETH", Name: "Ethereum", NetworkName: strPtr("Arbitrum Nova"), Precision: 18, Color: "#E57310"},
		{AssetID: caip.BaseAssetID, ChainID: caip.BaseMainnet, Symbol: "ETH", Name: "Ethereum", NetworkName: strPtr("Base"), Precision: 18, Color: "#0052FF"},
		{AssetID: caip.BTCAssetID, ChainID: caip.BitcoinMainnet, Symbol: "BTC", Name: "Bitcoin", Precision: 8, Color: "#FF9800"},
		{AssetID: caip.BCHAssetID, ChainID: caip.BitcoinCashMainnet, Symbol: "BCH", Name: "Bitcoin Cash", Precision: 8, Color: "#8BC34A"},
		{AssetID: caip.DOGEAssetID, ChainID: caip.DogecoinMainnet, Symbol: "DOGE", Name: "Dogecoin", Precision: 8, Color: "#FFC107"},
		{AssetID: caip.LTCAssetID, ChainID: caip.LitecoinMainnet, Symbol: "LTC", Name: "Litecoin", Precision: 8, Color: "#B8B8B8"},
		{AssetID: caip.ATOMAssetID, ChainID: caip.CosmosMainnet, Symbol: "ATOM", Name: "Cosmos", Precision: 6, Color: "#4a5fbc"},
		{AssetID: caip.RUNEAssetID, ChainID: caip.ThorchainMainnet, Symbol: "RUNE", Name: "THORChain", Precision: 8, Color: "#33FF99"},
		{AssetID: caip.SOLAssetID, ChainID: caip.SolanaMainnet, Symbol: "SOL", Name: "Solana", Precision: 9, Color: "#9945FF"},
	}
}

// SeedFeeAssets inserts fee assets missing from the store. Existing rows are kept.
func SeedFeeAssets(ctx context.Context, assets storage.AssetStore, nowMs int64) (int, error) {
	inserted := 0
	for _, a := range FeeAssets() {
		_, err := assets.GetByID(ctx, a.AssetID)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return inserted, fmt.Errorf("get asset %s: %w", a.AssetID, err)
		}
		a.UpdatedAt = nowMs
		if err := assets.Upsert(ctx, a); err != nil {
			return inserted, fmt.Errorf("seed asset %s: %w", a.AssetID, err)
		}
		inserted++
	}
	return inserted, nil
}
