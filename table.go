package labordash

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

type Kind int

const (
	KindString Kind = iota
	KindNumber
)

func (k Kind) String() string {
	if k == KindNumber {
		return "number"
	}
	return "string"
}

// Column describes one canonical column. Aliases are alternative raw header
// names that are renamed to Name during normalization.
type Column struct {
	Name     string
	Kind     Kind
	Required bool
	Aliases  []string
}

type Schema struct {
	Name    string
	Columns []Column
}

func NewSchema(name string, columns ...Column) *Schema {
	return &Schema{Name: name, Columns: columns}
}

func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (s *Schema) Has(name string) bool {
	_, ok := s.Column(name)
	return ok
}

// With returns a copy of the schema with extra columns appended. Columns
// already present are left unchanged.
func (s *Schema) With(columns ...Column) *Schema {
	out := &Schema{Name: s.Name, Columns: append([]Column(nil), s.Columns...)}
	for _, c := range columns {
		if !out.Has(c.Name) {
			out.Columns = append(out.Columns, c)
		}
	}
	return out
}

// Record is one row. Values are string, float64 or nil.
type Record map[string]any

func (r Record) Str(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func (r Record) Num(col string) (float64, bool) {
	v, ok := r[col].(float64)
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type Table struct {
	Schema  *Schema
	Records []Record
}

func NewTable(schema *Schema, records ...Record) *Table {
	if records == nil {
		records = []Record{}
	}
	return &Table{Schema: schema, Records: records}
}

// EmptyTable is the default returned for a dataset no source could provide.
func EmptyTable(schema *Schema) *Table {
	return NewTable(schema)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

func (t *Table) Empty() bool { return t.Len() == 0 }

func (t *Table) Filter(keep func(Record) bool) *Table {
	out := NewTable(t.Schema)
	for _, r := range t.Records {
		if keep(r) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// SortByNumber sorts a copy descending (or ascending) on col. Rows without a
// value for col sort last. Ties break on the tie column, ascending.
func (t *Table) SortByNumber(col string, desc bool, tie string) *Table {
	out := NewTable(t.Schema, append([]Record(nil), t.Records...)...)
	sort.SliceStable(out.Records, func(i, j int) bool {
		a, aok := out.Records[i].Num(col)
		b, bok := out.Records[j].Num(col)
		if aok != bok {
			return aok
		}
		if aok && a != b {
			if desc {
				return a > b
			}
			return a < b
		}
		return out.Records[i].Str(tie) < out.Records[j].Str(tie)
	})
	return out
}

func (t *Table) SortByString(col string) *Table {
	out := NewTable(t.Schema, append([]Record(nil), t.Records...)...)
	sort.SliceStable(out.Records, func(i, j int) bool {
		return strings.ToLower(out.Records[i].Str(col)) < strings.ToLower(out.Records[j].Str(col))
	})
	return out
}

func (t *Table) Head(n int) *Table {
	if n < 0 || n >= t.Len() {
		return NewTable(t.Schema, append([]Record(nil), t.Records...)...)
	}
	return NewTable(t.Schema, append([]Record(nil), t.Records[:n]...)...)
}

// Project keeps the named columns, in order, renaming where rename maps an
// old name to a new one.
func (t *Table) Project(cols []string, rename map[string]string) *Table {
	columns := make([]Column, 0, len(cols))
	for _, name := range cols {
		c, ok := t.Schema.Column(name)
		if !ok {
			c = Column{Name: name}
		}
		if to, ok := rename[name]; ok {
			c.Name = to
		}
		c.Aliases = nil
		columns = append(columns, c)
	}

	out := NewTable(NewSchema(t.Schema.Name, columns...))
	for _, r := range t.Records {
		row := make(Record, len(cols))
		for i, name := range cols {
			row[columns[i].Name] = r[name]
		}
		out.Records = append(out.Records, row)
	}
	return out
}

// Numbers returns the non-null values of col in row order.
func (t *Table) Numbers(col string) []float64 {
	out := make([]float64, 0, t.Len())
	for _, r := range t.Records {
		if v, ok := r.Num(col); ok {
			out = append(out, v)
		}
	}
	return out
}

// Conforms reports whether every record carries exactly the schema's columns
// with values of the declared kind or nil.
func (t *Table) Conforms() bool {
	for _, r := range t.Records {
		if len(r) != len(t.Schema.Columns) {
			return false
		}
		for _, c := range t.Schema.Columns {
			v, ok := r[c.Name]
			if !ok {
				return false
			}
			switch v.(type) {
			case nil:
			case string:
				if c.Kind != KindString {
					return false
				}
			case float64:
				if c.Kind != KindNumber {
					return false
				}
			default:
				return false
			}
		}
	}
	return true
}
