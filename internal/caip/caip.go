// Package caip parses and builds CAIP-2 chain ids and CAIP-19 asset ids.
//
// Chain id:  <namespace>:<reference>                       e.g. eip155:1
// Asset id:  <chainId>/<assetNamespace>:<assetReference>   e.g. eip155:1/erc20:0xa0b8...
package caip

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mr-tron/base58"
)

var (
	// ErrInvalidChainID is returned when a chain id does not follow CAIP-2.
	ErrInvalidChainID = errors.New("invalid chain id")

	// ErrInvalidAssetID is returned when an asset id does not follow CAIP-19.
	ErrInvalidAssetID = errors.New("invalid asset id")
)

// ChainID identifies a network, e.g. "eip155:1".
type ChainID string

// AssetID identifies an asset on a network, e.g. "eip155:1/slip44:60".
type AssetID string

// String returns the raw chain id.
func (c ChainID) String() string { return string(c) }

// String returns the raw asset id.
func (a AssetID) String() string { return string(a) }

// Chain namespaces.
const (
	NamespaceEVM    = "eip155"
	NamespaceBIP122 = "bip122"
	NamespaceCosmos = "cosmos"
	NamespaceSolana = "solana"
)

// Asset namespaces.
const (
	AssetNamespaceSlip44 = "slip44"
	AssetNamespaceERC20  = "erc20"
	AssetNamespaceBEP20  = "bep20"
	AssetNamespaceToken  = "token"
	AssetNamespaceNative = "native"
)

var (
	namespaceRe      = regexp.MustCompile(`^[-a-z0-9]{3,8}$`)
	referenceRe      = regexp.MustCompile(`^[-_a-zA-Z0-9]{1,32}$`)
	assetNamespaceRe = regexp.MustCompile(`^[-a-z0-9]{3,8}$`)
	assetReferenceRe = regexp.MustCompile(`^[-.%a-zA-Z0-9]{1,128}$`)
)

// ChainParts is a decoded chain id.
type ChainParts struct {
	Namespace string
	Reference string
}

// AssetParts is a decoded asset id.
type AssetParts struct {
	ChainID        ChainID
	ChainNamespace string
	ChainReference string
	AssetNamespace string
	AssetReference string
}

// ToChainID builds and validates a chain id.
func ToChainID(namespace, reference string) (ChainID, error) {
	if !namespaceRe.MatchString(namespace) {
		return "", fmt.Errorf("%w: namespace %q", ErrInvalidChainID, namespace)
	}
	if !referenceRe.MatchString(reference) {
		return "", fmt.Errorf("%w: reference %q", ErrInvalidChainID, reference)
	}
	return ChainID(namespace + ":" + reference), nil
}

// FromChainID decodes a chain id.
func FromChainID(c ChainID) (ChainParts, error) {
	namespace, reference, ok := strings.Cut(string(c), ":")
	if !ok {
		return ChainParts{}, fmt.Errorf("%w: %q", ErrInvalidChainID, c)
	}
	if _, err := ToChainID(namespace, reference); err != nil {
		return ChainParts{}, err
	}
	return ChainParts{Namespace: namespace, Reference: reference}, nil
}

// ToAssetID builds and validates an asset id.
func ToAssetID(chainID ChainID, assetNamespace, assetReference string) (AssetID, error) {
	chain, err := FromChainID(chainID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAssetID, err)
	}
	if !assetNamespaceRe.MatchString(assetNamespace) {
		return "", fmt.Errorf("%w: asset namespace %q", ErrInvalidAssetID, assetNamespace)
	}
	if !assetReferenceRe.MatchString(assetReference) {
		return "", fmt.Errorf("%w: asset reference %q", ErrInvalidAssetID, assetReference)
	}
	if err := validateReference(chain.Namespace, assetNamespace, assetReference); err != nil {
		return "", err
	}
	return AssetID(string(chainID) + "/" + assetNamespace + ":" + assetReference), nil
}

// FromAssetID decodes an asset id into its chain and asset components.
func FromAssetID(a AssetID) (AssetParts, error) {
	chainPart, assetPart, ok := strings.Cut(string(a), "/")
	if !ok {
		return AssetParts{}, fmt.Errorf("%w: %q", ErrInvalidAssetID, a)
	}
	chain, err := FromChainID(ChainID(chainPart))
	if err != nil {
		return AssetParts{}, fmt.Errorf("%w: %v", ErrInvalidAssetID, err)
	}
	assetNamespace, assetReference, ok := strings.Cut(assetPart, ":")
	if !ok || !assetNamespaceRe.MatchString(assetNamespace) || !assetReferenceRe.MatchString(assetReference) {
		return AssetParts{}, fmt.Errorf("%w: %q", ErrInvalidAssetID, a)
	}
	return AssetParts{
		ChainID:        ChainID(chainPart),
		ChainNamespace: chain.Namespace,
		ChainReference: chain.Reference,
		AssetNamespace: assetNamespace,
		AssetReference: assetReference,
	}, nil
}

// ChainOf returns the chain component of an asset id.
// ok is false when the id cannot be decoded.
func ChainOf(a AssetID) (ChainID, bool) {
	parts, err := FromAssetID(a)
	if err != nil {
		return "", false
	}
	return parts.ChainID, true
}

// MustAssetID is ToAssetID for package-level constants. Panics on error.
func MustAssetID(chainID ChainID, assetNamespace, assetReference string) AssetID {
	id, err := ToAssetID(chainID, assetNamespace, assetReference)
	if err != nil {
		panic(err)
	}
	return id
}

// validateReference applies namespace specific reference rules.
func validateReference(chainNamespace, assetNamespace, assetReference string) error {
	switch {
	case chainNamespace == NamespaceEVM && (assetNamespace == AssetNamespaceERC20 || assetNamespace == AssetNamespaceBEP20):
		if len(assetReference) != 42 || !strings.HasPrefix(assetReference, "0x") {
			return fmt.Errorf("%w: contract address %q", ErrInvalidAssetID, assetReference)
		}
	case chainNamespace == NamespaceSolana && assetNamespace == AssetNamespaceToken:
		// SPL mint addresses are base58 encoded 32-byte keys
		decoded, err := base58.Decode(assetReference)
		if err != nil {
			return fmt.Errorf("%w: mint %q: %v", ErrInvalidAssetID, assetReference, err)
		}
		if len(decoded) != 32 {
			return fmt.Errorf("%w: mint %q decodes to %d bytes", ErrInvalidAssetID, assetReference, len(decoded))
		}
	}
	return nil
}
