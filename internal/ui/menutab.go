package ui

import (
	"github.com/charmbracelet/lipgloss"

	"markets-lab/internal/i18n"
	"markets-lab/internal/router"
)

// MenuTab is a navigation tab that is active when the current location
// matches Path.
type MenuTab struct {
	Label        string // translation key
	Path         string
	Color        lipgloss.Color
	RightElement string
	Exact        bool
}

// IsActive reports whether location matches the tab path.
func (m MenuTab) IsActive(location string) bool {
	_, ok := router.MatchPath(location, m.Path, m.Exact)
	return ok
}

// Click navigates to the tab path.
func (m MenuTab) Click(nav router.Navigator) {
	nav.Push(m.Path)
}

// Render draws the tab for location.
func (m MenuTab) Render(tr i18n.Translator, location string) string {
	label := tr.T(m.Label)
	style := tabStyle
	if m.IsActive(location) {
		style = activeTabStyle
		if m.Color != "" {
			style = style.Foreground(m.Color)
		}
	}
	out := label
	if m.RightElement != "" {
		out += " " + tagStyle.Render(m.RightElement)
	}
	return style.Render(out)
}

// RenderTabs draws tabs side by side.
func RenderTabs(tabs []MenuTab, tr i18n.Translator, location string) string {
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		parts = append(parts, t.Render(tr, location))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
