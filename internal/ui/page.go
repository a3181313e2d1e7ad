package ui

import (
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"markets-lab/internal/i18n"
)

var english = sync.OnceValue(i18n.English)

// Page wraps a view with loading and error states.
// Error wins only when not loading; then loading; else the children.
type Page struct {
	Loading       bool
	Error         bool
	RenderLoading func() string
	RenderError   func() string
	IsSubpage     bool
	Width         int
}

// Render renders the page around children. Nil render funcs fall back to
// a spinner frame and "No results found"; nil children render nothing.
func (p Page) Render(children func() string) string {
	var body string
	switch {
	case p.Error && !p.Loading:
		if p.RenderError != nil {
			body = p.RenderError()
		} else {
			body = mutedStyle.Render(english().T("common.noResultsFound"))
		}
	case p.Loading:
		if p.RenderLoading != nil {
			body = p.RenderLoading()
		} else {
			body = spinner.New().View()
		}
	case children != nil:
		body = children()
	}

	style := lipgloss.NewStyle()
	if !p.IsSubpage {
		style = style.PaddingTop(1)
	}
	if p.Width > 0 {
		style = style.Width(p.Width)
	}
	return style.Render(body)
}

// NewPage returns a Page with the default loading spinner and
// "No results found" error view.
func NewPage(tr i18n.Translator, spin spinner.Model) Page {
	return Page{
		RenderLoading: func() string {
			return spin.View() + " " + mutedStyle.Render(tr.T("common.loading"))
		},
		RenderError: func() string {
			return mutedStyle.Render(tr.T("common.noResultsFound"))
		},
	}
}
