package ui

import (
	"fmt"
	"html"
)

// IconSpec describes a single-path vector icon.
type IconSpec struct {
	DisplayName string
	Path        string // SVG path data
	ViewBox     string
	Glyph       string // terminal fallback
}

// Icon is a renderable icon created by CreateIcon.
type Icon struct {
	spec IconSpec
}

// CreateIcon builds an Icon. An empty ViewBox defaults to "0 0 24 24".
func CreateIcon(spec IconSpec) Icon {
	if spec.ViewBox == "" {
		spec.ViewBox = "0 0 24 24"
	}
	if spec.Glyph == "" {
		spec.Glyph = "•"
	}
	return Icon{spec: spec}
}

// DisplayName returns the icon name.
func (i Icon) DisplayName() string { return i.spec.DisplayName }

// SVG renders the icon as standalone SVG markup filled with currentColor.
func (i Icon) SVG() string {
	return fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s" aria-label="%s"><path d="%s" fill="currentColor"/></svg>`,
		html.EscapeString(i.spec.ViewBox),
		html.EscapeString(i.spec.DisplayName),
		html.EscapeString(i.spec.Path),
	)
}

// String renders the terminal glyph.
func (i Icon) String() string { return i.spec.Glyph }

// SendIcon is the paper plane shown on send actions.
var SendIcon = CreateIcon(IconSpec{
	DisplayName: "Send",
	Path: "M12.2895 21.0697C13.0587 21.8389 14.3682 21.5327 14.7165 20.5021L19.4689 6.43908" +
		"C19.8559 5.29388 18.7694 4.19835 17.621 4.57588L3.46086 9.23116C2.42241 9.57256 2.10877 10.889 2.88173 11.662" +
		"L5.60193 14.3822C6.10191 14.8822 6.88741 14.9543 7.47012 14.5538L12.6289 11.0081" +
		"C12.8996 10.822 13.2249 11.1535 13.0337 11.4206L9.42214 16.467C9.00451 17.0506 9.07035 17.8506 9.57777 18.358" +
		"L12.2895 21.0697Z",
	ViewBox: "0 0 24 24",
	Glyph:   "➤",
})
