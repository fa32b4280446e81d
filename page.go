package labordash

// View is one widget's data: a table or a labeled series, with the metadata
// the presentation layer needs to title and label it.
type View struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	XLabel   string   `json:"x_label,omitempty"`
	YLabel   string   `json:"y_label,omitempty"`
	Table    *Table   `json:"-"`
	Points   []Point  `json:"-"`
	Degraded bool     `json:"degraded"`
	Sources  []string `json:"sources,omitempty"`
}

// Empty reports whether the view has nothing to draw. Widgets show a "no
// data" placeholder instead.
func (v *View) Empty() bool {
	if v == nil {
		return true
	}
	if v.Table != nil && !v.Table.Empty() {
		return false
	}
	for _, p := range v.Points {
		if p.Value.Valid {
			return false
		}
	}
	return true
}

// Page is everything rendered for one interaction.
type Page struct {
	Title    string
	Request  ViewRequest
	Snapshot *OccupationSnapshot
	Views    []*View
	Options  []string

	// Unavailable lists datasets that no source could provide.
	Unavailable []string
}

func (p *Page) View(name string) *View {
	for _, v := range p.Views {
		if v.Name == name {
			return v
		}
	}
	return nil
}

func (p *Page) Degraded() bool {
	return len(p.Unavailable) > 0
}
