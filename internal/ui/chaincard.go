package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/state"
)

// ErrFeeAssetNotFound is returned when a chain's fee asset is missing from
// the state store.
var ErrFeeAssetNotFound = errors.New("fee asset not found")

// ChainCard is a selectable card for one chain, labelled with its fee
// asset's network name.
type ChainCard struct {
	ChainID  caip.ChainID
	Asset    *domain.Asset
	Label    string
	Selected bool
}

// NewChainCard resolves the chain's fee asset through the store.
func NewChainCard(store *state.Store, chainID caip.ChainID) (ChainCard, error) {
	feeAssetID, ok := caip.ChainIDToFeeAssetID(chainID)
	if !ok {
		return ChainCard{}, fmt.Errorf("%w: no fee asset for chain %s", ErrFeeAssetNotFound, chainID)
	}
	asset := state.Select(store, state.SelectAssetByID(feeAssetID))
	if asset == nil {
		return ChainCard{}, fmt.Errorf("%w: %s", ErrFeeAssetNotFound, feeAssetID)
	}
	return ChainCard{
		ChainID: chainID,
		Asset:   asset,
		Label:   asset.DisplayNetworkName(),
	}, nil
}

// Click emits the card's chain id.
func (c ChainCard) Click(onClick func(caip.ChainID)) {
	if onClick != nil {
		onClick(c.ChainID)
	}
}

// HasTooltip reports whether the label tooltip is shown at width.
func (c ChainCard) HasTooltip(width int) bool {
	return width >= BreakpointMD
}

// Render draws the card. On wide terminals the chain id is shown as a
// tooltip line under the label.
func (c ChainCard) Render(width int) string {
	style := cardStyle
	if c.Selected {
		style = activeCardStyle
	}
	if c.Asset != nil && c.Asset.Color != "" {
		style = style.BorderForeground(lipgloss.Color(c.Asset.Color))
	}
	body := c.Label
	if c.HasTooltip(width) {
		body += "\n" + mutedStyle.Render(string(c.ChainID))
	}
	return style.Render(body)
}
