package schedule

// Cell is one text cell of an extracted table together with its position on
// the page. The position is kept for layout-aware parsing and is never
// compared.
type Cell struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Text   string  `json:"text"`
}

// Row is an ordered sequence of cells.
type Row []Cell

// Texts projects the row onto its cell texts, dropping positions.
func (r Row) Texts() []string {
	texts := make([]string, 0, len(r))
	for _, c := range r {
		texts = append(texts, c.Text)
	}
	return texts
}

// Table is one logical block of rows. A document may yield several.
type Table []Row
