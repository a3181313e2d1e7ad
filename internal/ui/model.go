package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/i18n"
	"markets-lab/internal/query"
	"markets-lab/internal/recommended"
	"markets-lab/internal/router"
	"markets-lab/internal/state"
)

// Routes of the markets TUI.
const (
	RecommendedPath = "/markets/recommended"
	WatchlistPath   = "/markets/watchlist"
	assetRoute      = "/assets/:chainId/:assetRef"
)

// MarketsTabs are the tabs above the markets pages.
var MarketsTabs = []MenuTab{
	{Label: "markets.recommended", Path: RecommendedPath, Color: ColorPrimary},
	{Label: "markets.watchlist", Path: WatchlistPath, Color: ColorPrimary},
}

type loadedMsg struct {
	err error
}

// ModelOptions configures a MarketsModel.
type ModelOptions struct {
	Page       *recommended.Page
	Store      *state.Store
	History    *router.History
	Translator i18n.Translator
	Subscriber *Subscriber // optional live updates
	Logger     *zap.Logger
}

// MarketsModel is the bubbletea model of the markets pages.
type MarketsModel struct {
	ctx     context.Context
	page    *recommended.Page
	store   *state.Store
	history *router.History
	tr      i18n.Translator
	sub     *Subscriber
	logger  *zap.Logger

	spinner   spinner.Model
	width     int
	loading   bool
	err       error
	row       int
	cell      int
	selectors map[domain.Category]*caip.ChainID
	dropdown  *ChainDropdown
}

// NewMarketsModel creates the model. ctx bounds its fetches.
func NewMarketsModel(ctx context.Context, opts ModelOptions) *MarketsModel {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tr := opts.Translator
	if tr == nil {
		tr = i18n.English()
	}
	history := opts.History
	if history == nil {
		history = router.NewHistory(RecommendedPath)
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &MarketsModel{
		ctx:       ctx,
		page:      opts.Page,
		store:     opts.Store,
		history:   history,
		tr:        tr,
		sub:       opts.Subscriber,
		logger:    logger.Named("tui"),
		spinner:   sp,
		width:     BreakpointMD,
		loading:   true,
		selectors: make(map[domain.Category]*caip.ChainID),
	}
}

// Init starts the first load.
func (m *MarketsModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.load(nil, query.Options{})}
	if m.sub != nil {
		cmds = append(cmds, WaitForUpdate(m.sub))
	}
	return tea.Batch(cmds...)
}

func (m *MarketsModel) load(selector *caip.ChainID, opts query.Options) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.page.Load(m.ctx, selector, opts)}
	}
}

func (m *MarketsModel) loadRow(cat domain.Category, selector *caip.ChainID) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.page.LoadGrid(m.ctx, cat, selector, query.Options{})}
	}
}

// Update handles messages.
func (m *MarketsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			m.logger.Warn("load failed", zap.Error(msg.err))
		}
		return m, nil

	case UpdateMsg:
		m.logger.Debug("live update", zap.String("run_id", msg.RunID))
		return m, tea.Batch(m.load(nil, query.Options{ForceRefetch: true}), WaitForUpdate(m.sub))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *MarketsModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.dropdown != nil && m.dropdown.IsOpen() {
		chosen, cmd := m.dropdown.Update(msg)
		if chosen {
			cat := m.currentRow().Category
			m.selectors[cat] = m.dropdown.Selected().ChainID
			m.dropdown.Close()
			m.dropdown = nil
			m.cell = 0
			return m, m.loadRow(cat, m.selectors[cat])
		}
		if !m.dropdown.IsOpen() {
			m.dropdown = nil
		}
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		m.nextTab()
	case "esc", "backspace":
		m.history.Back()
	case "up", "k":
		if m.row > 0 {
			m.row--
			m.cell = 0
		}
	case "down", "j":
		if m.row < len(m.page.Rows())-1 {
			m.row++
			m.cell = 0
		}
	case "left", "h":
		if m.cell > 0 {
			m.cell--
		}
	case "right", "l":
		if m.cell < len(m.currentGrid().AssetIDs())-1 {
			m.cell++
		}
	case "c":
		row := m.currentRow()
		m.dropdown = NewChainDropdown(m.tr, m.store, m.page.ChainIDs(row))
		m.dropdown.Open()
	case "enter":
		ids := m.currentGrid().AssetIDs()
		if m.cell < len(ids) {
			m.page.OpenAsset(ids[m.cell])
		}
	case "r":
		m.loading = true
		return m, m.load(nil, query.Options{ForceRefetch: true})
	}
	return m, nil
}

func (m *MarketsModel) nextTab() {
	loc := m.history.Location()
	for i, t := range MarketsTabs {
		if t.IsActive(loc) {
			MarketsTabs[(i+1)%len(MarketsTabs)].Click(m.history)
			return
		}
	}
	MarketsTabs[0].Click(m.history)
}

func (m *MarketsModel) currentRow() recommended.Row {
	rows := m.page.Rows()
	return rows[min(m.row, len(rows)-1)]
}

func (m *MarketsModel) currentGrid() recommended.Grid {
	cat := m.currentRow().Category
	g, _ := m.page.Grid(cat, m.selectors[cat])
	return g
}

// Selector returns the chain picked for a row, nil for all chains.
func (m *MarketsModel) Selector(cat domain.Category) *caip.ChainID {
	return m.selectors[cat]
}

// View renders the current location.
func (m *MarketsModel) View() string {
	loc := m.history.Location()
	header := RenderTabs(MarketsTabs, m.tr, loc)

	if match, ok := router.MatchPath(loc, assetRoute, true); ok {
		id := caip.AssetID(match.Params["chainId"] + "/" + match.Params["assetRef"])
		return lipgloss.JoinVertical(lipgloss.Left, header, m.assetView(id))
	}

	page := NewPage(m.tr, m.spinner)
	page.Width = m.width
	if (MenuTab{Path: WatchlistPath}).IsActive(loc) {
		page.Error = true
		return lipgloss.JoinVertical(lipgloss.Left, header, page.Render(nil))
	}

	// Rows fail independently; a load error is only reported.
	page.Loading = m.loading
	body := page.Render(m.recommendedView)
	if m.err != nil && !m.loading {
		return lipgloss.JoinVertical(lipgloss.Left, header, errorStyle.Render(m.tr.T("markets.loadIncomplete")), body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func (m *MarketsModel) recommendedView() string {
	var sections []string
	for i, row := range m.page.Rows() {
		selector := m.selectors[row.Category]
		g, err := m.page.Grid(row.Category, selector)
		if err != nil {
			continue
		}

		title := headingStyle.Render(row.Title)
		if i == m.row {
			title = "▸ " + title
		}
		chains := m.tr.T("markets.chains.count", i18n.Vars{"smart_count": len(m.page.ChainIDs(row))})
		head := title + "  " + mutedStyle.Render(chains)
		if i == m.row && m.dropdown != nil {
			head += "  " + m.dropdown.View(selector)
		} else {
			head += "  " + NewChainDropdown(m.tr, m.store, m.page.ChainIDs(row)).View(selector)
		}

		lines := []string{head}
		if row.Subtitle != "" {
			lines = append(lines, subtitleStyle.Render(row.Subtitle))
		}

		// A failed listing or a selected chain whose fee asset is missing
		// renders the row's error view; the other rows are unaffected.
		rowPage := NewPage(m.tr, m.spinner)
		rowPage.IsSubpage = true
		rowPage.Error = g.Err != nil
		if selector != nil {
			card, err := NewChainCard(m.store, *selector)
			if err != nil {
				rowPage.Error = true
			} else {
				card.Selected = true
				lines = append(lines, card.Render(m.width))
			}
		}
		focused := -1
		if i == m.row {
			focused = m.cell
		}
		lines = append(lines, rowPage.Render(func() string {
			return RenderGrid(g, m.lookup(row.Category), m.tr, m.width, focused)
		}))
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

func (m *MarketsModel) lookup(cat domain.Category) CardLookup {
	return func(id caip.AssetID) CardData {
		data := CardData{Asset: state.Select(m.store, state.SelectAssetByID(id))}
		data.Market, data.HasMarket = m.page.Sources().MarketData(cat, id)
		return data
	}
}

func (m *MarketsModel) assetView(id caip.AssetID) string {
	asset := state.Select(m.store, state.SelectAssetByID(id))
	title := string(id)
	if asset != nil {
		title = asset.Name + " (" + asset.Symbol + ")"
	}
	lines := []string{headingStyle.Render(title), mutedStyle.Render(string(id))}
	for _, cat := range domain.AllCategories {
		if md, ok := m.page.Sources().MarketData(cat, id); ok {
			lines = append(lines,
				m.tr.T("common.price")+": "+FormatUSD(md.Price),
				m.tr.T("common.marketCap")+": "+FormatUSD(md.MarketCap),
				m.tr.T("common.volume")+": "+FormatUSD(md.Volume),
				Sparkline(md.Sparkline, columnWidth(m.width)*6),
			)
			break
		}
	}
	return lipgloss.NewStyle().PaddingTop(1).Render(strings.Join(lines, "\n"))
}
