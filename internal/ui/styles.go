// Package ui renders the markets pages in the terminal with bubbletea and
// lipgloss.
package ui

import "github.com/charmbracelet/lipgloss"

// BreakpointMD is the terminal width at which wide layouts kick in.
const BreakpointMD = 100

var (
	ColorText    = lipgloss.Color("#F8F8F2")
	ColorMuted   = lipgloss.Color("#6272A4")
	ColorPrimary = lipgloss.Color("#3761F9")
	ColorSuccess = lipgloss.Color("#50FA7B")
	ColorDanger  = lipgloss.Color("#FF5555")
	ColorBorder  = lipgloss.Color("#44475A")
)

var (
	headingStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText)
	subtitleStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	mutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	errorStyle    = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
	activeCardStyle = cardStyle.BorderForeground(ColorPrimary)

	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(ColorMuted)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).Underline(true)
	tagStyle       = lipgloss.NewStyle().Padding(0, 1).Bold(true)
)

// columnWidth is the width in cells of one of the nine grid columns.
func columnWidth(total int) int {
	w := total / 9
	if w < 6 {
		w = 6
	}
	return w
}
