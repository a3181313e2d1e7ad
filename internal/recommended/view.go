package recommended

import (
	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
)

// UpdateTypeRows tags a broadcast carrying refreshed rows.
const UpdateTypeRows = "rows"

// CellView is the wire form of a grid cell.
type CellView struct {
	Kind    string       `json:"kind"`
	AssetID caip.AssetID `json:"assetId"`
	Index   int          `json:"index"`
	ColSpan int          `json:"colSpan"`
	RowSpan int          `json:"rowSpan"`
	APY     *float64     `json:"apy,omitempty"`
	Volume  *float64     `json:"volumeUsd1d,omitempty"`
}

// RowView is the wire form of one rendered row.
type RowView struct {
	Category domain.Category `json:"category"`
	Title    string          `json:"title"`
	Subtitle string          `json:"subtitle,omitempty"`
	ChainIDs []caip.ChainID  `json:"chainIds"`
	Selector *caip.ChainID   `json:"chainId,omitempty"`
	Loading  bool            `json:"loading"`
	Error    string          `json:"error,omitempty"`
	Cells    []CellView      `json:"cells"`
}

// Update is pushed to live subscribers after a refresh.
type Update struct {
	Type      string    `json:"type"`
	RunID     string    `json:"runId"`
	Timestamp int64     `json:"timestamp"`
	Rows      []RowView `json:"rows"`
}

// View renders one row for selector, windowed to limit assets.
// limit <= 0 uses window.DefaultLimit. Loading skeletons are capped too.
func (p *Page) View(cat domain.Category, selector *caip.ChainID, limit int) (RowView, error) {
	row, err := p.Row(cat)
	if err != nil {
		return RowView{}, err
	}
	g, err := p.GridWindow(cat, selector, limit)
	if err != nil {
		return RowView{}, err
	}

	cells := g.Cells
	if limit > 0 && len(cells) > limit {
		cells = cells[:limit]
	}
	v := RowView{
		Category: cat,
		Title:    row.Title,
		Subtitle: row.Subtitle,
		ChainIDs: p.ChainIDs(row),
		Selector: selector,
		Loading:  g.Loading,
		Cells:    make([]CellView, len(cells)),
	}
	if g.Err != nil {
		v.Error = g.Err.Error()
	}
	for i, c := range cells {
		v.Cells[i] = CellView{
			Kind:    c.Kind.String(),
			AssetID: c.AssetID,
			Index:   c.Index,
			ColSpan: c.ColSpan,
			RowSpan: c.RowSpan,
			APY:     c.APY,
			Volume:  c.Volume,
		}
	}
	return v, nil
}

// Views renders every row for selector in display order.
func (p *Page) Views(selector *caip.ChainID) []RowView {
	views := make([]RowView, 0, len(rowSpecs))
	for _, spec := range rowSpecs {
		v, err := p.View(spec.category, selector, 0)
		if err != nil {
			continue
		}
		views = append(views, v)
	}
	return views
}
