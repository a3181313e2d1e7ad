package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/query"
	"markets-lab/internal/router"
	"markets-lab/internal/state"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newLoadedModel(t *testing.T) (*MarketsModel, *router.History) {
	t.Helper()
	ctx := context.Background()
	store := seededStore()
	history := router.NewHistory(RecommendedPath)
	page := newTestPage(store, history)

	m := NewMarketsModel(ctx, ModelOptions{Page: page, Store: store, History: history})
	assert.Contains(t, m.View(), "Loading")

	require.NoError(t, page.Load(ctx, nil, query.Options{}))
	m.Update(loadedMsg{})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, history
}

func TestMarketsModel_RendersRows(t *testing.T) {
	m, _ := newLoadedModel(t)

	view := m.View()
	assert.Contains(t, view, "Recommended")
	assert.Contains(t, view, "Highest Volume Assets")
	assert.Contains(t, view, "THORChain Savers")
	assert.Contains(t, view, "BTC")
	assert.NotContains(t, view, "Loading")
}

func TestMarketsModel_OpenAssetAndBack(t *testing.T) {
	m, history := newLoadedModel(t)

	m.Update(key("down"))
	m.Update(key("right"))
	m.Update(key("enter"))
	assert.Equal(t, router.AssetPath(string(caip.ETHAssetID)), history.Location())
	assert.Contains(t, m.View(), "Ethereum (ETH)")
	assert.Contains(t, m.View(), "$3k")

	m.Update(key("esc"))
	assert.Equal(t, RecommendedPath, history.Location())
}

func TestMarketsModel_Tabs(t *testing.T) {
	m, history := newLoadedModel(t)

	m.Update(key("tab"))
	assert.Equal(t, WatchlistPath, history.Location())
	assert.Contains(t, m.View(), "No results found")

	m.Update(key("tab"))
	assert.Equal(t, RecommendedPath, history.Location())
}

func TestMarketsModel_ChainSelection(t *testing.T) {
	m, _ := newLoadedModel(t)

	m.Update(key("c"))
	m.Update(key("doge"))
	_, cmd := m.Update(key("enter"))
	require.NotNil(t, cmd)

	sel := m.Selector(domain.CategoryTradingVolume)
	require.NotNil(t, sel)
	assert.Equal(t, caip.DogecoinMainnet, *sel)

	msg := cmd()
	m.Update(msg)
	assert.Contains(t, m.View(), "No results found", "no listed asset lives on dogecoin")
}

func TestMarketsModel_MissingFeeAssetRendersRowError(t *testing.T) {
	ctx := context.Background()
	eth := caip.EthereumMainnet

	render := func(store *state.Store, selector *caip.ChainID) string {
		history := router.NewHistory(RecommendedPath)
		page := newTestPage(store, history)
		require.NoError(t, page.Load(ctx, nil, query.Options{}))
		m := NewMarketsModel(ctx, ModelOptions{Page: page, Store: store, History: history})
		m.Update(loadedMsg{})
		m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
		if selector != nil {
			m.selectors[domain.CategoryTradingVolume] = selector
		}
		return m.View()
	}

	baseline := strings.Count(render(seededStore(), nil), "No results found")
	assert.Equal(t, baseline, strings.Count(render(seededStore(), &eth), "No results found"))

	partial := state.New()
	for _, a := range state.FeeAssets() {
		if a.ChainID != eth {
			partial.UpsertAssets(a)
		}
	}
	view := render(partial, &eth)
	assert.Equal(t, baseline+1, strings.Count(view, "No results found"))
	assert.Contains(t, view, "Highest Volume Assets")
}

func TestMarketsModel_FailedRowKeepsOtherRows(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	history := router.NewHistory(RecommendedPath)
	boom := errors.New("coingecko 429")
	page := newTestPageWith(store, history, failingTrending{staticMarkets: staticMarkets{list: testMarketList()}, err: boom})

	m := NewMarketsModel(ctx, ModelOptions{Page: page, Store: store, History: history})
	err := page.Load(ctx, nil, query.Options{})
	require.ErrorIs(t, err, boom)
	m.Update(loadedMsg{err: err})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	view := m.View()
	assert.Contains(t, view, "Some rows could not be refreshed")
	assert.Contains(t, view, "Highest Volume Assets")
	assert.Contains(t, view, "Largest Market Cap")
	assert.Contains(t, view, "Trending")
	assert.Contains(t, view, "$65k")

	g, gridErr := page.Grid(domain.CategoryTrending, nil)
	require.NoError(t, gridErr)
	assert.ErrorIs(t, g.Err, boom)
}

func TestMarketsModel_Quit(t *testing.T) {
	m, _ := newLoadedModel(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
