package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/i18n"
	"markets-lab/internal/recommended"
)

// CardData is what a card shows beside its layout cell.
type CardData struct {
	Asset     *domain.Asset
	Market    domain.MarketData
	HasMarket bool
}

// CardLookup resolves the data of an asset card.
type CardLookup func(id caip.AssetID) CardData

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline scales points onto block characters, keeping at most width of
// the most recent points.
func Sparkline(points []float64, width int) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}
	if len(points) > width {
		points = points[len(points)-width:]
	}
	lo, hi := points[0], points[0]
	for _, p := range points {
		lo, hi = min(lo, p), max(hi, p)
	}
	var b strings.Builder
	for _, p := range points {
		i := 0
		if hi > lo {
			i = int((p - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		b.WriteRune(sparkBlocks[i])
	}
	return b.String()
}

// FormatUSD renders a dollar amount with SI suffixes above a thousand.
func FormatUSD(v float64) string {
	if v >= 1000 || v <= -1000 {
		n, unit := humanize.ComputeSI(v)
		if unit == "G" {
			unit = "B"
		}
		return fmt.Sprintf("$%s%s", humanize.FtoaWithDigits(n, 2), unit)
	}
	return "$" + humanize.CommafWithDigits(v, 2)
}

// FormatPercent renders a fraction as a signed percentage.
func FormatPercent(fraction float64) string {
	return fmt.Sprintf("%+.2f%%", fraction*100)
}

func changeStyle(v float64) lipgloss.Style {
	if v < 0 {
		return lipgloss.NewStyle().Foreground(ColorDanger)
	}
	return lipgloss.NewStyle().Foreground(ColorSuccess)
}

// RenderCell draws one grid cell. colWidth is the width of one grid column.
func RenderCell(cell recommended.Cell, data CardData, tr i18n.Translator, colWidth int, focused bool) string {
	width := cell.ColSpan*colWidth - 2
	height := 3
	if cell.RowSpan > 1 {
		height = 2*height + 2
	}

	style := cardStyle.Width(width).Height(height)
	if focused {
		style = activeCardStyle.Width(width).Height(height)
	}

	title := string(cell.AssetID)
	if data.Asset != nil {
		title = data.Asset.Symbol
		if data.Asset.Name != "" && cell.ColSpan > 2 {
			title += " " + mutedStyle.Render(data.Asset.Name)
		}
	}

	var lines []string
	switch cell.Kind {
	case recommended.CellSkeleton:
		lines = append(lines, mutedStyle.Render(strings.Repeat("░", max(width-2, 1))))
		return style.Render(strings.Join(lines, "\n"))
	case recommended.CellSparkline:
		lines = append(lines, headingStyle.Render(title))
		if data.HasMarket {
			lines = append(lines,
				FormatUSD(data.Market.Price)+" "+changeStyle(data.Market.ChangePercent24Hr).Render(FormatPercent(data.Market.ChangePercent24Hr/100)),
				Sparkline(data.Market.Sparkline, width-2),
			)
		}
	case recommended.CellAsset:
		lines = append(lines, headingStyle.Render(title))
		if data.HasMarket {
			lines = append(lines,
				FormatUSD(data.Market.Price),
				changeStyle(data.Market.ChangePercent24Hr).Render(FormatPercent(data.Market.ChangePercent24Hr/100)),
			)
		}
	case recommended.CellLp:
		lines = append(lines, headingStyle.Render(title))
		if cell.APY != nil {
			lines = append(lines, tr.T("common.apy")+" "+FormatPercent(*cell.APY))
		}
		if cell.Volume != nil {
			lines = append(lines, tr.T("common.volume")+" "+FormatUSD(*cell.Volume))
		}
	}
	return style.Render(strings.Join(lines, "\n"))
}

// RenderGrid lays a grid out on nine columns: a tall leading cell followed
// by the remaining cells three to a line.
func RenderGrid(g recommended.Grid, lookup CardLookup, tr i18n.Translator, width, focused int) string {
	if len(g.Cells) == 0 {
		return mutedStyle.Render(tr.T("common.noResultsFound"))
	}
	colWidth := columnWidth(width)

	render := func(i int) string {
		c := g.Cells[i]
		var data CardData
		if c.Kind != recommended.CellSkeleton && lookup != nil {
			data = lookup(c.AssetID)
		}
		return RenderCell(c, data, tr, colWidth, i == focused)
	}

	lead := render(0)
	var lines []string
	var line []string
	for i := 1; i < len(g.Cells); i++ {
		line = append(line, render(i))
		if len(line) == 3 {
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, line...))
			line = nil
		}
	}
	if len(line) > 0 {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, line...))
	}
	if len(lines) == 0 {
		return lead
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, lead, lipgloss.JoinVertical(lipgloss.Left, lines...))
}
