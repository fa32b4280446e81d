package web

import (
	"html/template"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nulllvoid/labordash"
)

const placeholder = "No data available"

var printer = message.NewPrinter(language.English)

var templateFuncs = template.FuncMap{
	"money": formatMoney,
	"count": formatCount,
	"join":  strings.Join,
}

func formatMoney(v float64) string { return printer.Sprintf("$%.0f", v) }
func formatCount(v float64) string { return printer.Sprintf("%.0f", v) }
func formatRatio(v float64) string { return printer.Sprintf("%.2f", v) }
func formatPct(v float64) string   { return printer.Sprintf("%.1f%%", v) }

func formatNumber(n labordash.Number, unit string) string {
	if !n.Valid || math.IsNaN(n.Value) {
		return "n/a"
	}
	switch unit {
	case labordash.UnitDollars:
		return formatMoney(n.Value)
	case labordash.UnitCount:
		return formatCount(n.Value)
	case labordash.UnitRatio:
		return formatRatio(n.Value)
	case unitPct:
		return formatPct(n.Value)
	default:
		return printer.Sprintf("%v", n.Value)
	}
}

const unitPct = "pct"

// columnUnits maps the numeric columns of view tables to a display unit.
var columnUnits = map[string]string{
	labordash.ColTotEmp:      labordash.UnitCount,
	labordash.ColAMedian:     labordash.UnitDollars,
	labordash.ColAMean:       labordash.UnitDollars,
	labordash.ColLocQuotient: labordash.UnitRatio,
	labordash.ColSharePct:    unitPct,
}

var columnLabels = map[string]string{
	labordash.ColOccCode:     "SOC",
	labordash.ColOccTitle:    "Occupation",
	labordash.ColTotEmp:      "Employment",
	labordash.ColAMedian:     "Median annual wage",
	labordash.ColAMean:       "Mean annual wage",
	labordash.ColAreaTitle:   "Area",
	labordash.ColLocQuotient: "Location quotient",
	labordash.ColIndustry:    "Industry",
	labordash.ColSharePct:    "Share (%)",
}

// chartSpec names the label and value columns a table view is charted by.
type chartSpec struct {
	label string
	value string
}

var charts = map[string]chartSpec{
	labordash.ViewTopOccupations:    {labordash.ColOccTitle, labordash.ColTotEmp},
	labordash.ViewTopGeographies:    {labordash.ColAreaTitle, labordash.ColAMedian},
	labordash.ViewConcentration:     {labordash.ColAreaTitle, labordash.ColLocQuotient},
	labordash.ViewIndustryMix:       {labordash.ColIndustry, labordash.ColSharePct},
	labordash.ViewIndustryOccupants: {labordash.ColOccTitle, labordash.ColTotEmp},
}

type bar struct {
	Label string
	Text  string
	Width float64
}

type widget struct {
	Name        string
	Title       string
	XLabel      string
	YLabel      string
	Degraded    bool
	Sources     []string
	Placeholder string
	Columns     []string
	Rows        [][]string
	Bars        []bar
}

type field struct {
	Label string
	Text  string
}

type option struct {
	Value string
	Label string
}

type pageModel struct {
	Title       string
	Occupation  string
	Level       string
	Industry    string
	Snapshot    []field
	Widgets     []*widget
	Occupations []option
	Industries  []string
	Unavailable []string
}

type errorModel struct {
	Status  int
	Message string
}

func newPageModel(p *labordash.Page) *pageModel {
	m := &pageModel{
		Title:       p.Title,
		Occupation:  p.Request.Occupation,
		Level:       string(p.Request.Level),
		Industry:    p.Request.Industry,
		Industries:  p.Options,
		Unavailable: p.Unavailable,
	}
	if p.Snapshot != nil {
		for _, f := range p.Snapshot.Fields() {
			m.Snapshot = append(m.Snapshot, field{Label: f.Label, Text: formatNumber(f.Value, f.Unit)})
		}
	}
	for _, v := range p.Views {
		if v.Name == labordash.ViewOccupationList {
			m.Occupations = occupationOptions(v.Table)
			continue
		}
		m.Widgets = append(m.Widgets, newWidget(v))
	}
	return m
}

func occupationOptions(t *labordash.Table) []option {
	if t == nil {
		return nil
	}
	out := make([]option, 0, t.Len())
	for _, r := range t.Records {
		code := r.Str(labordash.ColOccCode)
		out = append(out, option{Value: code, Label: r.Str(labordash.ColOccTitle) + " (" + code + ")"})
	}
	return out
}

func newWidget(v *labordash.View) *widget {
	w := &widget{
		Name:     v.Name,
		Title:    v.Title,
		XLabel:   v.XLabel,
		YLabel:   v.YLabel,
		Degraded: v.Degraded,
		Sources:  v.Sources,
	}
	if v.Empty() {
		w.Placeholder = placeholder
		return w
	}

	if v.Table != nil {
		w.Columns, w.Rows = tableCells(v.Table)
		if chart, ok := charts[v.Name]; ok {
			w.Bars = tableBars(v.Table, chart)
		}
		return w
	}

	values := make([]float64, len(v.Points))
	for i, p := range v.Points {
		if p.Value.Valid {
			values[i] = p.Value.Value
		}
	}
	widths := scale(values)
	for i, p := range v.Points {
		w.Bars = append(w.Bars, bar{
			Label: p.Label,
			Text:  formatNumber(p.Value, labordash.UnitDollars),
			Width: widths[i],
		})
	}
	return w
}

func tableCells(t *labordash.Table) ([]string, [][]string) {
	names := t.Schema.Names()
	cols := make([]string, len(names))
	for i, n := range names {
		cols[i] = n
		if label, ok := columnLabels[n]; ok {
			cols[i] = label
		}
	}

	rows := make([][]string, 0, t.Len())
	for _, r := range t.Records {
		row := make([]string, len(names))
		for i, n := range names {
			if unit, ok := columnUnits[n]; ok {
				v, valid := r.Num(n)
				row[i] = formatNumber(labordash.Number{Value: v, Valid: valid}, unit)
				continue
			}
			row[i] = r.Str(n)
		}
		rows = append(rows, row)
	}
	return cols, rows
}

func tableBars(t *labordash.Table, chart chartSpec) []bar {
	values := make([]float64, t.Len())
	for i, r := range t.Records {
		values[i], _ = r.Num(chart.value)
	}
	widths := scale(values)

	bars := make([]bar, t.Len())
	for i, r := range t.Records {
		v, ok := r.Num(chart.value)
		bars[i] = bar{
			Label: r.Str(chart.label),
			Text:  formatNumber(labordash.Number{Value: v, Valid: ok}, columnUnits[chart.value]),
			Width: widths[i],
		}
	}
	return bars
}

// scale maps values to bar widths in percent of the largest.
func scale(values []float64) []float64 {
	var top float64
	for _, v := range values {
		if v > top && !math.IsInf(v, 0) {
			top = v
		}
	}
	out := make([]float64, len(values))
	if top <= 0 {
		return out
	}
	for i, v := range values {
		if v > 0 && !math.IsInf(v, 0) {
			out[i] = math.Round(v/top*1000) / 10
		}
	}
	return out
}

type pointJSON struct {
	Label string   `json:"label"`
	Value *float64 `json:"value"`
}

type viewJSON struct {
	labordash.View
	Columns []string         `json:"columns,omitempty"`
	Rows    []map[string]any `json:"rows,omitempty"`
	Points  []pointJSON      `json:"points,omitempty"`
	Empty   bool             `json:"empty"`
}

type snapshotJSON struct {
	Code   string              `json:"code"`
	Title  string              `json:"title"`
	Fields map[string]*float64 `json:"fields"`
}

type pageJSON struct {
	Title       string        `json:"title"`
	Occupation  string        `json:"occupation,omitempty"`
	Level       string        `json:"level,omitempty"`
	Snapshot    *snapshotJSON `json:"snapshot,omitempty"`
	Views       []viewJSON    `json:"views"`
	Unavailable []string      `json:"unavailable,omitempty"`
}

func numberJSON(n labordash.Number) *float64 {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return nil
	}
	v := n.Value
	return &v
}

func newPageJSON(p *labordash.Page) pageJSON {
	out := pageJSON{
		Title:       p.Title,
		Occupation:  p.Request.Occupation,
		Level:       string(p.Request.Level),
		Views:       make([]viewJSON, 0, len(p.Views)),
		Unavailable: p.Unavailable,
	}
	if s := p.Snapshot; s != nil {
		out.Snapshot = &snapshotJSON{Code: s.Code, Title: s.Title, Fields: make(map[string]*float64)}
		for _, f := range s.Fields() {
			out.Snapshot.Fields[f.Label] = numberJSON(f.Value)
		}
	}

	for _, v := range p.Views {
		vj := viewJSON{View: *v, Empty: v.Empty()}
		if v.Table != nil {
			vj.Columns = v.Table.Schema.Names()
			for _, r := range v.Table.Records {
				row := make(map[string]any, len(vj.Columns))
				for _, c := range vj.Columns {
					if _, ok := columnUnits[c]; ok {
						num, valid := r.Num(c)
						row[c] = numberJSON(labordash.Number{Value: num, Valid: valid})
						continue
					}
					row[c] = r.Str(c)
				}
				vj.Rows = append(vj.Rows, row)
			}
		}
		for _, pt := range v.Points {
			vj.Points = append(vj.Points, pointJSON{Label: pt.Label, Value: numberJSON(pt.Value)})
		}
		out.Views = append(out.Views, vj)
	}
	return out
}
