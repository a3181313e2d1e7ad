package marketdata

import (
	"strings"

	"markets-lab/internal/caip"
)

// coingeckoNative maps CoinGecko coin ids to native assets.
var coingeckoNative = map[string][]caip.AssetID{
	"ethereum":      {caip.ETHAssetID, caip.OptimismAssetID, caip.ArbitrumAssetID, caip.ArbitrumNovaAssetID, caip.BaseAssetID},
	"avalanche-2":   {caip.AVAXAssetID},
	"binancecoin":   {caip.BSCAssetID},
	"matic-network": {caip.PolygonAssetID},
	"xdai":          {caip.GnosisAssetID},
	"bitcoin":       {caip.BTCAssetID},
	"bitcoin-cash":  {caip.BCHAssetID},
	"dogecoin":      {caip.DOGEAssetID},
	"litecoin":      {caip.LTCAssetID},
	"cosmos":        {caip.ATOMAssetID},
	"thorchain":     {caip.RUNEAssetID},
	"solana":        {caip.SOLAssetID},
}

type platform struct {
	chainID        caip.ChainID
	assetNamespace string
}

// coingeckoPlatforms maps CoinGecko asset platform ids to chains.
var coingeckoPlatforms = map[string]platform{
	"ethereum":            {caip.EthereumMainnet, caip.AssetNamespaceERC20},
	"avalanche":           {caip.AvalancheMainnet, caip.AssetNamespaceERC20},
	"optimistic-ethereum": {caip.OptimismMainnet, caip.AssetNamespaceERC20},
	"binance-smart-chain": {caip.BnbSmartChainMainnet, caip.AssetNamespaceBEP20},
	"polygon-pos":         {caip.PolygonMainnet, caip.AssetNamespaceERC20},
	"xdai":                {caip.GnosisMainnet, caip.AssetNamespaceERC20},
	"arbitrum-one":        {caip.ArbitrumMainnet, caip.AssetNamespaceERC20},
	"arbitrum-nova":       {caip.ArbitrumNovaMainnet, caip.AssetNamespaceERC20},
	"base":                {caip.BaseMainnet, caip.AssetNamespaceERC20},
	"solana":              {caip.SolanaMainnet, caip.AssetNamespaceToken},
}

// platformOrder follows caip.KnownChainIDs.
var platformOrder = []string{
	"ethereum",
	"avalanche",
	"optimistic-ethereum",
	"binance-smart-chain",
	"polygon-pos",
	"xdai",
	"arbitrum-one",
	"arbitrum-nova",
	"base",
	"solana",
}

// coinAssetIDs resolves a coin to its assets on every supported chain:
// native assets first, then platform tokens in chain display order.
// Unsupported or malformed platform entries are skipped.
func coinAssetIDs(coinID string, platforms map[string]string) []caip.AssetID {
	ids := append([]caip.AssetID(nil), coingeckoNative[coinID]...)
	for _, name := range platformOrder {
		address := platforms[name]
		p, ok := coingeckoPlatforms[name]
		if !ok || address == "" {
			continue
		}
		if p.assetNamespace != caip.AssetNamespaceToken {
			address = strings.ToLower(address)
		}
		id, err := caip.ToAssetID(p.chainID, p.assetNamespace, address)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
