package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"markets-lab/internal/caip"
	"markets-lab/internal/i18n"
	"markets-lab/internal/state"
)

// ChainOption is one dropdown entry. A nil ChainID is the "All" entry.
type ChainOption struct {
	ChainID *caip.ChainID
	Label   string
}

// ChainDropdown lists a row's chains behind an "All" entry with fuzzy search.
type ChainDropdown struct {
	input    textinput.Model
	options  []ChainOption
	filtered []ChainOption
	index    int
	open     bool
}

// NewChainDropdown builds the options for chainIDs. Labels come from the
// chain's fee asset; chains without one fall back to the raw id.
func NewChainDropdown(tr i18n.Translator, store *state.Store, chainIDs []caip.ChainID) *ChainDropdown {
	ti := textinput.New()
	ti.Placeholder = tr.T("markets.chains.search")
	ti.CharLimit = 40
	ti.Prompt = "/ "

	options := make([]ChainOption, 0, len(chainIDs)+1)
	options = append(options, ChainOption{Label: tr.T("common.all")})
	for _, id := range chainIDs {
		label := string(id)
		if card, err := NewChainCard(store, id); err == nil {
			label = card.Label
		}
		options = append(options, ChainOption{ChainID: &id, Label: label})
	}

	d := &ChainDropdown{input: ti, options: options}
	d.filter()
	return d
}

// Options returns the entries matching the current search.
func (d *ChainDropdown) Options() []ChainOption {
	return d.filtered
}

// Selected returns the highlighted entry.
func (d *ChainDropdown) Selected() ChainOption {
	if len(d.filtered) == 0 {
		return ChainOption{}
	}
	return d.filtered[d.index]
}

// IsOpen reports whether the dropdown is expanded.
func (d *ChainDropdown) IsOpen() bool { return d.open }

// Open expands the dropdown and focuses search.
func (d *ChainDropdown) Open() {
	d.open = true
	d.input.Focus()
}

// Close collapses the dropdown and clears search.
func (d *ChainDropdown) Close() {
	d.open = false
	d.input.Blur()
	d.input.SetValue("")
	d.filter()
}

// SetQuery replaces the search text.
func (d *ChainDropdown) SetQuery(q string) {
	d.input.SetValue(q)
	d.filter()
}

// Update handles navigation and search keys. chosen is true when the user
// picked an entry.
func (d *ChainDropdown) Update(msg tea.Msg) (chosen bool, cmd tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, nil
	}
	switch key.String() {
	case "up", "ctrl+k":
		if d.index > 0 {
			d.index--
		}
		return false, nil
	case "down", "ctrl+j":
		if d.index < len(d.filtered)-1 {
			d.index++
		}
		return false, nil
	case "enter":
		return len(d.filtered) > 0, nil
	case "esc":
		d.Close()
		return false, nil
	}
	before := d.input.Value()
	d.input, cmd = d.input.Update(msg)
	if d.input.Value() != before {
		d.filter()
	}
	return false, cmd
}

func (d *ChainDropdown) filter() {
	d.index = 0
	q := d.input.Value()
	if q == "" {
		d.filtered = d.options
		return
	}
	labels := make([]string, len(d.options))
	for i, o := range d.options {
		labels[i] = o.Label
	}
	matches := fuzzy.Find(q, labels)
	d.filtered = make([]ChainOption, 0, len(matches))
	for _, m := range matches {
		d.filtered = append(d.filtered, d.options[m.Index])
	}
}

// View renders the dropdown. Collapsed, it shows only the selected label.
func (d *ChainDropdown) View(current *caip.ChainID) string {
	label := d.options[0].Label
	for _, o := range d.options {
		if o.ChainID != nil && current != nil && *o.ChainID == *current {
			label = o.Label
		}
	}
	if !d.open {
		return tagStyle.Render(label + " ▾")
	}

	var lines []string
	lines = append(lines, d.input.View())
	for i, o := range d.filtered {
		prefix := "  "
		style := lipgloss.NewStyle()
		if i == d.index {
			prefix = "> "
			style = style.Bold(true).Foreground(ColorPrimary)
		}
		lines = append(lines, style.Render(prefix+o.Label))
	}
	if len(d.filtered) == 0 {
		lines = append(lines, mutedStyle.Render("  no matches"))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
