package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markets-lab/internal/caip"
	"markets-lab/internal/i18n"
	"markets-lab/internal/router"
	"markets-lab/internal/state"
)

func TestCreateIcon(t *testing.T) {
	icon := CreateIcon(IconSpec{DisplayName: "Dot", Path: "M0 0Z"})
	assert.Equal(t, "Dot", icon.DisplayName())
	assert.Contains(t, icon.SVG(), `viewBox="0 0 24 24"`)
	assert.Equal(t, "•", icon.String())
}

func TestSendIcon(t *testing.T) {
	svg := SendIcon.SVG()
	assert.Equal(t, "Send", SendIcon.DisplayName())
	assert.Contains(t, svg, `d="M12.2895 21.0697C13.0587 21.8389`)
	assert.Contains(t, svg, `L12.2895 21.0697Z"`)
	assert.Contains(t, svg, `fill="currentColor"`)
	assert.Contains(t, svg, `viewBox="0 0 24 24"`)
}

func TestPage_RenderStates(t *testing.T) {
	p := Page{
		RenderLoading: func() string { return "LOADING" },
		RenderError:   func() string { return "ERROR" },
	}
	children := func() string { return "CHILDREN" }

	tests := []struct {
		name    string
		loading bool
		err     bool
		want    string
	}{
		{"children", false, false, "CHILDREN"},
		{"loading", true, false, "LOADING"},
		{"error", false, true, "ERROR"},
		{"loading wins over error", true, true, "LOADING"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.Loading, p.Error = tt.loading, tt.err
			assert.Contains(t, p.Render(children), tt.want)
		})
	}
}

func TestPage_ZeroValueFallsBack(t *testing.T) {
	var p Page
	assert.NotPanics(t, func() { p.Render(nil) })

	p.Error = true
	assert.Contains(t, p.Render(nil), "No results found")

	p.Loading = true
	var out string
	require.NotPanics(t, func() { out = p.Render(nil) })
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestNewPage_DefaultViews(t *testing.T) {
	p := NewPage(i18n.English(), spinner.New())
	p.Error = true
	assert.Contains(t, p.Render(nil), "No results found")

	p.Error, p.Loading = false, true
	assert.Contains(t, p.Render(nil), "Loading")
}

func TestMenuTab(t *testing.T) {
	tab := MenuTab{Label: "markets.recommended", Path: "/markets/recommended"}

	assert.True(t, tab.IsActive("/markets/recommended"))
	assert.True(t, tab.IsActive("/markets/recommended/"))
	assert.True(t, tab.IsActive("/markets/recommended/extra"))
	assert.False(t, tab.IsActive("/markets/watchlist"))

	tab.Exact = true
	assert.False(t, tab.IsActive("/markets/recommended/extra"))

	h := router.NewHistory("/")
	tab.Click(h)
	assert.Equal(t, "/markets/recommended", h.Location())

	tab.RightElement = "NEW"
	out := tab.Render(i18n.English(), h.Location())
	assert.Contains(t, out, "Recommended")
	assert.Contains(t, out, "NEW")
}

func TestChainCard(t *testing.T) {
	store := seededStore()

	card, err := NewChainCard(store, caip.ArbitrumMainnet)
	require.NoError(t, err)
	assert.Equal(t, "Arbitrum One", card.Label)

	card, err = NewChainCard(store, caip.BitcoinMainnet)
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", card.Label, "falls back to the asset name")

	var clicked caip.ChainID
	card.Click(func(id caip.ChainID) { clicked = id })
	assert.Equal(t, caip.BitcoinMainnet, clicked)

	assert.False(t, card.HasTooltip(BreakpointMD-1))
	assert.True(t, card.HasTooltip(BreakpointMD))
	assert.Contains(t, card.Render(BreakpointMD), string(caip.BitcoinMainnet))
	assert.NotContains(t, card.Render(40), string(caip.BitcoinMainnet))
}

func TestChainCard_FeeAssetNotFound(t *testing.T) {
	_, err := NewChainCard(state.New(), caip.EthereumMainnet)
	assert.ErrorIs(t, err, ErrFeeAssetNotFound)

	_, err = NewChainCard(seededStore(), caip.ChainID("eip155:999"))
	assert.ErrorIs(t, err, ErrFeeAssetNotFound)
}

func TestChainDropdown(t *testing.T) {
	chains := []caip.ChainID{caip.EthereumMainnet, caip.ArbitrumMainnet, caip.ArbitrumNovaMainnet, caip.BitcoinMainnet}
	d := NewChainDropdown(i18n.English(), seededStore(), chains)

	opts := d.Options()
	require.Len(t, opts, 5)
	assert.Equal(t, "All", opts[0].Label)
	assert.Nil(t, opts[0].ChainID)
	assert.Equal(t, "Arbitrum One", opts[2].Label)

	d.SetQuery("arb")
	opts = d.Options()
	require.Len(t, opts, 2)
	for _, o := range opts {
		assert.Contains(t, o.Label, "Arbitrum")
	}

	d.SetQuery("zzz")
	assert.Empty(t, d.Options())
	assert.Nil(t, d.Selected().ChainID)
}

func TestChainDropdown_Keys(t *testing.T) {
	chains := []caip.ChainID{caip.EthereumMainnet, caip.BitcoinMainnet}
	d := NewChainDropdown(i18n.English(), seededStore(), chains)
	d.Open()
	assert.True(t, d.IsOpen())

	chosen, _ := d.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.False(t, chosen)
	chosen, _ = d.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.False(t, chosen)
	chosen, _ = d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, chosen)
	require.NotNil(t, d.Selected().ChainID)
	assert.Equal(t, caip.BitcoinMainnet, *d.Selected().ChainID)

	btc := caip.BitcoinMainnet
	assert.Contains(t, d.View(&btc), "Bitcoin")

	d.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, d.IsOpen())
	assert.Contains(t, d.View(nil), "All")
}
