package caip

// Known chain ids, in display order.
const (
	EthereumMainnet      ChainID = "eip155:1"
	AvalancheMainnet     ChainID = "eip155:43114"
	OptimismMainnet      ChainID = "eip155:10"
	BnbSmartChainMainnet ChainID = "eip155:56"
	PolygonMainnet       ChainID = "eip155:137"
	GnosisMainnet        ChainID = "eip155:100"
	ArbitrumMainnet      ChainID = "eip155:42161"
	ArbitrumNovaMainnet  ChainID = "eip155:42170"
	BaseMainnet          ChainID = "eip155:8453"
	BitcoinMainnet       ChainID = "bip122:000000000019d6689c085ae165831e93"
	BitcoinCashMainnet   ChainID = "bip122:000000000000000000651ef99cb9fcbe"
	DogecoinMainnet      ChainID = "bip122:00000000001a91e3dace36e2be3bf030"
	LitecoinMainnet      ChainID = "bip122:12a765e31ffd4059bada1e25190f6e98"
	CosmosMainnet        ChainID = "cosmos:cosmoshub-4"
	ThorchainMainnet     ChainID = "cosmos:thorchain-mainnet-v1"
	SolanaMainnet        ChainID = "solana:5eykt4UsFv8P8NJdTREpi1zswiAPdqY"
)

// KnownChainIDs lists every supported chain in display order.
var KnownChainIDs = []ChainID{
	EthereumMainnet,
	AvalancheMainnet,
	OptimismMainnet,
	BnbSmartChainMainnet,
	PolygonMainnet,
	GnosisMainnet,
	ArbitrumMainnet,
	ArbitrumNovaMainnet,
	BaseMainnet,
	BitcoinMainnet,
	BitcoinCashMainnet,
	DogecoinMainnet,
	LitecoinMainnet,
	CosmosMainnet,
	ThorchainMainnet,
	SolanaMainnet,
}

// Native fee assets.
var (
	ETHAssetID          = MustAssetID(EthereumMainnet, AssetNamespaceSlip44, "60")
	AVAXAssetID         = MustAssetID(AvalancheMainnet, AssetNamespaceSlip44, "60")
	OptimismAssetID     = MustAssetID(OptimismMainnet, AssetNamespaceSlip44, "60")
	BSCAssetID          = MustAssetID(BnbSmartChainMainnet, AssetNamespaceSlip44, "60")
	PolygonAssetID      = MustAssetID(PolygonMainnet, AssetNamespaceSlip44, "60")
	GnosisAssetID       = MustAssetID(GnosisMainnet, AssetNamespaceSlip44, "60")
	ArbitrumAssetID     = MustAssetID(ArbitrumMainnet, AssetNamespaceSlip44, "60")
	ArbitrumNovaAssetID = MustAssetID(ArbitrumNovaMainnet, AssetNamespaceSlip44, "60")
	BaseAssetID         = MustAssetID(BaseMainnet, AssetNamespaceSlip44, "60")
	BTCAssetID          = MustAssetID(BitcoinMainnet, AssetNamespaceSlip44, "0")
	BCHAssetID          = MustAssetID(BitcoinCashMainnet, AssetNamespaceSlip44, "145")
	DOGEAssetID         = MustAssetID(DogecoinMainnet, AssetNamespaceSlip44, "3")
	LTCAssetID          = MustAssetID(LitecoinMainnet, AssetNamespaceSlip44, "2")
	ATOMAssetID         = MustAssetID(CosmosMainnet, AssetNamespaceSlip44, "118")
	RUNEAssetID         = MustAssetID(ThorchainMainnet, AssetNamespaceSlip44, "931")
	SOLAssetID          = MustAssetID(SolanaMainnet, AssetNamespaceSlip44, "501")
)

var feeAssets = map[ChainID]AssetID{
	EthereumMainnet:      ETHAssetID,
	AvalancheMainnet:     AVAXAssetID,
	OptimismMainnet:      OptimismAssetID,
	BnbSmartChainMainnet: BSCAssetID,
	PolygonMainnet:       PolygonAssetID,
	GnosisMainnet:        GnosisAssetID,
	ArbitrumMainnet:      ArbitrumAssetID,
	ArbitrumNovaMainnet:  ArbitrumNovaAssetID,
	BaseMainnet:          BaseAssetID,
	BitcoinMainnet:       BTCAssetID,
	BitcoinCashMainnet:   BCHAssetID,
	DogecoinMainnet:      DOGEAssetID,
	LitecoinMainnet:      LTCAssetID,
	CosmosMainnet:        ATOMAssetID,
	ThorchainMainnet:     RUNEAssetID,
	SolanaMainnet:        SOLAssetID,
}

// ChainIDToFeeAssetID returns the native asset used to pay fees on a chain.
func ChainIDToFeeAssetID(c ChainID) (AssetID, bool) {
	id, ok := feeAssets[c]
	return id, ok
}

// IsKnownChainID reports whether c is one of KnownChainIDs.
func IsKnownChainID(c ChainID) bool {
	_, ok := feeAssets[c]
	return ok
}
