package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
)

const (
	// DefaultPortalsLimit is the page size of a Portals token listing.
	DefaultPortalsLimit = 250
	// DefaultPortalsMinLiquidity drops dust pools.
	DefaultPortalsMinLiquidity = 100_000
)

// portalsNetworks maps chains to Portals network names, in chain display order.
var portalsNetworks = []struct {
	chainID caip.ChainID
	network string
}{
	{caip.EthereumMainnet, "ethereum"},
	{caip.AvalancheMainnet, "avalanche"},
	{caip.OptimismMainnet, "optimism"},
	{caip.BnbSmartChainMainnet, "bsc"},
	{caip.PolygonMainnet, "polygon"},
	{caip.GnosisMainnet, "gnosis"},
	{caip.ArbitrumMainnet, "arbitrum"},
	{caip.BaseMainnet, "base"},
}

func portalsNetwork(chainID caip.ChainID) (string, bool) {
	for _, n := range portalsNetworks {
		if n.chainID == chainID {
			return n.network, true
		}
	}
	return "", false
}

func portalsChain(network string) (caip.ChainID, bool) {
	for _, n := range portalsNetworks {
		if n.network == network {
			return n.chainID, true
		}
	}
	return "", false
}

// PortalsSupportedChainIDs lists chains Portals can be queried for.
func PortalsSupportedChainIDs() []caip.ChainID {
	out := make([]caip.ChainID, len(portalsNetworks))
	for i, n := range portalsNetworks {
		out[i] = n.chainID
	}
	return out
}

// PortalsClient lists one-click DeFi tokens from the Portals API.
type PortalsClient struct {
	t            *transport
	limit        int
	minLiquidity int
}

// NewPortalsClient creates a Portals client against baseURL, e.g. https://api.portals.fi/v2.
func NewPortalsClient(baseURL string, opts ...Option) *PortalsClient {
	return &PortalsClient{
		t:            newTransport("portals", baseURL, opts),
		limit:        DefaultPortalsLimit,
		minLiquidity: DefaultPortalsMinLiquidity,
	}
}

type portalsToken struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
	Network string `json:"network"`
	Metrics struct {
		APY         flexFloat `json:"apy"`
		VolumeUSD1d flexFloat `json:"volumeUsd1d"`
	} `json:"metrics"`
}

type portalsTokensResponse struct {
	Tokens []portalsToken `json:"tokens"`
	More   bool           `json:"more"`
}

// Assets lists tokens on chainIDs ordered by 24h volume desc.
// nil chainIDs means every supported chain; unsupported chains are ignored
// and a list of only unsupported chains yields an empty result.
func (c *PortalsClient) Assets(ctx context.Context, chainIDs []caip.ChainID) (*domain.PortalsAssets, error) {
	result := &domain.PortalsAssets{
		IDs:      []caip.AssetID{},
		ByID:     map[caip.AssetID]domain.PortalsAsset{},
		ChainIDs: []caip.ChainID{},
	}

	if chainIDs == nil {
		chainIDs = PortalsSupportedChainIDs()
	}
	var networks []string
	for _, chainID := range chainIDs {
		if network, ok := portalsNetwork(chainID); ok {
			networks = append(networks, network)
		}
	}
	if len(networks) == 0 {
		return result, nil
	}

	q := url.Values{}
	for _, n := range networks {
		q.Add("networks", n)
	}
	q.Set("minLiquidity", strconv.Itoa(c.minLiquidity))
	q.Set("sortBy", "volumeUsd1d")
	q.Set("sortDirection", "desc")
	q.Set("limit", strconv.Itoa(c.limit))
	q.Set("page", "0")

	var resp portalsTokensResponse
	if err := c.t.getJSON(ctx, "tokens", "/tokens", q, &resp); err != nil {
		return nil, fmt.Errorf("portals tokens: %w", err)
	}

	sort.SliceStable(resp.Tokens, func(i, j int) bool {
		return resp.Tokens[i].Metrics.VolumeUSD1d > resp.Tokens[j].Metrics.VolumeUSD1d
	})

	seenChains := map[caip.ChainID]bool{}
	for _, tok := range resp.Tokens {
		chainID, ok := portalsChain(tok.Network)
		if !ok {
			continue
		}
		namespace := caip.AssetNamespaceERC20
		if chainID == caip.BnbSmartChainMainnet {
			namespace = caip.AssetNamespaceBEP20
		}
		assetID, err := caip.ToAssetID(chainID, namespace, strings.ToLower(tok.Address))
		if err != nil {
			continue
		}
		if _, dup := result.ByID[assetID]; dup {
			continue
		}

		result.IDs = append(result.IDs, assetID)
		result.ByID[assetID] = domain.PortalsAsset{
			AssetID: assetID,
			Name:    tok.Name,
			Symbol:  tok.Symbol,
			Metrics: domain.OpportunityMetrics{
				APY:         float64(tok.Metrics.APY) / 100, // Portals reports percent
				VolumeUSD1d: float64(tok.Metrics.VolumeUSD1d),
			},
		}
		if !seenChains[chainID] {
			seenChains[chainID] = true
			result.ChainIDs = append(result.ChainIDs, chainID)
		}
	}
	return result, nil
}
