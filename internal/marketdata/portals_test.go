package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markets-lab/internal/caip"
)

const (
	lpEthereum = "0x06da0fd433c1a5d7a4faa01111c044910a184553"
	lpArbitrum = "0x905dfcd5649217c42684f23958568e533c711aa3"
	lpBSC      = "0x16b9a82891338f9ba80e2d6970fdda79d1eb0dae"
)

func TestPortals_AssetsOrderedByVolume(t *testing.T) {
	var networks atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tokens", r.URL.Path)
		assert.Equal(t, "volumeUsd1d", r.URL.Query().Get("sortBy"))
		networks.Store(r.URL.Query()["networks"])
		w.Write([]byte(`{"more": false, "tokens": [
			{"key": "arbitrum:a", "name": "WETH-USDC", "symbol": "SLP", "network": "arbitrum",
				"address": "` + lpArbitrum + `", "metrics": {"apy": "4.5", "volumeUsd1d": "1000"}},
			{"key": "ethereum:b", "name": "ETH-USDT", "symbol": "UNI-V2", "network": "ethereum",
				"address": "` + lpEthereum + `", "metrics": {"apy": 12, "volumeUsd1d": 5000}},
			{"key": "bsc:c", "name": "USDT-BNB", "symbol": "Cake-LP", "network": "bsc",
				"address": "` + lpBSC + `", "metrics": {"apy": "1", "volumeUsd1d": "3000"}},
			{"key": "fantom:d", "name": "FTM-LP", "network": "fantom", "address": "0x0", "metrics": {}},
			{"key": "ethereum:e", "name": "broken", "network": "ethereum", "address": "0x1234", "metrics": {}}
		]}`))
	}))
	defer server.Close()

	client := NewPortalsClient(server.URL, fastRetry()...)

	assets, err := client.Assets(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, networks.Load(), len(portalsNetworks))

	eth := caip.MustAssetID(caip.EthereumMainnet, caip.AssetNamespaceERC20, lpEthereum)
	bsc := caip.MustAssetID(caip.BnbSmartChainMainnet, caip.AssetNamespaceBEP20, lpBSC)
	arb := caip.MustAssetID(caip.ArbitrumMainnet, caip.AssetNamespaceERC20, lpArbitrum)

	assert.Equal(t, []caip.AssetID{eth, bsc, arb}, assets.IDs)
	assert.Equal(t, []caip.ChainID{caip.EthereumMainnet, caip.BnbSmartChainMainnet, caip.ArbitrumMainnet}, assets.ChainIDs)
	assert.InDelta(t, 0.12, assets.ByID[eth].Metrics.APY, 1e-9)
	assert.InDelta(t, 1000.0, assets.ByID[arb].Metrics.VolumeUSD1d, 1e-9)
	assert.Equal(t, "WETH-USDC", assets.ByID[arb].Name)
}

func TestPortals_SingleChain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"base"}, r.URL.Query()["networks"])
		w.Write([]byte(`{"tokens": []}`))
	}))
	defer server.Close()

	client := NewPortalsClient(server.URL, fastRetry()...)

	assets, err := client.Assets(context.Background(), []caip.ChainID{caip.BaseMainnet, caip.BitcoinMainnet})
	require.NoError(t, err)
	assert.Empty(t, assets.IDs)
	assert.NotNil(t, assets.ByID)
}

func TestPortals_UnsupportedChainsSkipRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewPortalsClient(server.URL, fastRetry()...)

	assets, err := client.Assets(context.Background(), []caip.ChainID{caip.BitcoinMainnet})
	require.NoError(t, err)
	assert.Empty(t, assets.IDs)
	assert.Empty(t, assets.ChainIDs)
	assert.Zero(t, calls.Load())
}
