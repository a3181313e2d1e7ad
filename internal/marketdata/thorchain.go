package marketdata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
)

// ErrUnsupportedOpportunity is returned for opportunity keys the THORChain
// client does not serve.
var ErrUnsupportedOpportunity = errors.New("unsupported opportunity type")

// SupportedThorchainSaversChainIDs lists chains with THORChain savers vaults.
var SupportedThorchainSaversChainIDs = []caip.ChainID{
	caip.EthereumMainnet,
	caip.AvalancheMainnet,
	caip.BnbSmartChainMainnet,
	caip.BitcoinMainnet,
	caip.BitcoinCashMainnet,
	caip.DogecoinMainnet,
	caip.LitecoinMainnet,
	caip.CosmosMainnet,
}

// SaversKey selects THORChain savers opportunities.
var SaversKey = domain.OpportunityKey{
	DefiType:     domain.DefiTypeStaking,
	DefiProvider: domain.DefiProviderThorchainSavers,
}

// thorchainChains maps THORChain pool chain prefixes to chains.
var thorchainChains = map[string]caip.ChainID{
	"ETH":  caip.EthereumMainnet,
	"AVAX": caip.AvalancheMainnet,
	"BSC":  caip.BnbSmartChainMainnet,
	"BTC":  caip.BitcoinMainnet,
	"BCH":  caip.BitcoinCashMainnet,
	"DOGE": caip.DogecoinMainnet,
	"LTC":  caip.LitecoinMainnet,
	"GAIA": caip.CosmosMainnet,
	"THOR": caip.ThorchainMainnet,
}

// PoolAssetID converts THORChain pool notation (CHAIN.SYMBOL[-CONTRACT]) to
// an asset id. Pools without a contract resolve to the chain's fee asset.
func PoolAssetID(pool string) (caip.AssetID, bool) {
	chainPart, symbolPart, ok := strings.Cut(pool, ".")
	if !ok {
		return "", false
	}
	chainID, ok := thorchainChains[strings.ToUpper(chainPart)]
	if !ok {
		return "", false
	}

	_, contract, hasContract := strings.Cut(symbolPart, "-")
	if !hasContract {
		return caip.ChainIDToFeeAssetID(chainID)
	}

	namespace := caip.AssetNamespaceERC20
	if chainID == caip.BnbSmartChainMainnet {
		namespace = caip.AssetNamespaceBEP20
	}
	id, err := caip.ToAssetID(chainID, namespace, strings.ToLower(contract))
	if err != nil {
		return "", false
	}
	return id, true
}

// ThorchainClient reads savers pools from THORNode and yields from Midgard.
type ThorchainClient struct {
	thornode *transport
	midgard  *transport
}

// NewThorchainClient creates a client for the given THORNode and Midgard base URLs.
func NewThorchainClient(thornodeURL, midgardURL string, opts ...Option) *ThorchainClient {
	return &ThorchainClient{
		thornode: newTransport("thornode", thornodeURL, opts),
		midgard:  newTransport("midgard", midgardURL, opts),
	}
}

type thornodePool struct {
	Asset       string    `json:"asset"`
	Status      string    `json:"status"`
	SaversDepth flexFloat `json:"savers_depth"`
}

type midgardPool struct {
	Asset         string    `json:"asset"`
	Status        string    `json:"status"`
	SaversAPR     flexFloat `json:"saversAPR"`
	SaversDepth   flexFloat `json:"saversDepth"`
	AssetPriceUSD flexFloat `json:"assetPriceUSD"`
}

// SaversPools returns the asset ids of available pools with a funded
// savers vault, in THORNode order.
func (c *ThorchainClient) SaversPools(ctx context.Context) ([]caip.AssetID, error) {
	var pools []thornodePool
	if err := c.thornode.getJSON(ctx, "pools", "/thorchain/pools", nil, &pools); err != nil {
		return nil, fmt.Errorf("thornode pools: %w", err)
	}

	ids := make([]caip.AssetID, 0, len(pools))
	for _, p := range pools {
		if !strings.EqualFold(p.Status, "available") || p.SaversDepth <= 0 {
			continue
		}
		id, ok := PoolAssetID(p.Asset)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// OpportunityIDs lists opportunity ids for key. Savers opportunities are
// keyed by their pool's asset id.
func (c *ThorchainClient) OpportunityIDs(ctx context.Context, key domain.OpportunityKey) ([]string, error) {
	if key != SaversKey {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedOpportunity, key.DefiProvider, key.DefiType)
	}
	assets, err := c.SaversPools(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(assets))
	for i, a := range assets {
		ids[i] = string(a)
	}
	return ids, nil
}

// OpportunitiesMetadata returns savers APY and TVL for every key.
// TVL is the savers depth in USD.
func (c *ThorchainClient) OpportunitiesMetadata(ctx context.Context, keys []domain.OpportunityKey) ([]domain.OpportunityMetadata, error) {
	for _, key := range keys {
		if key != SaversKey {
			return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedOpportunity, key.DefiProvider, key.DefiType)
		}
	}
	if len(keys) == 0 {
		return []domain.OpportunityMetadata{}, nil
	}

	q := url.Values{}
	q.Set("status", "available")

	var pools []midgardPool
	if err := c.midgard.getJSON(ctx, "pools", "/pools", q, &pools); err != nil {
		return nil, fmt.Errorf("midgard pools: %w", err)
	}

	out := make([]domain.OpportunityMetadata, 0, len(pools))
	for _, p := range pools {
		if p.SaversDepth <= 0 {
			continue
		}
		id, ok := PoolAssetID(p.Asset)
		if !ok {
			continue
		}
		out = append(out, domain.OpportunityMetadata{
			ID:              string(id),
			AssetID:         id,
			UnderlyingAsset: id,
			Provider:        domain.DefiProviderThorchainSavers,
			Type:            domain.DefiTypeStaking,
			APY:             float64(p.SaversAPR),
			TVL:             float64(p.SaversDepth) / 1e8 * float64(p.AssetPriceUSD),
			Name:            p.Asset + " Vault",
		})
	}
	return out, nil
}
