package labordash

import (
	"math"
	"sort"
)

// Percentile returns the p-th percentile (0-100) of values using linear
// interpolation between closest ranks. It reports false for no values.
func Percentile(values []float64, p float64) (float64, bool) {
	if len(values) == 0 || math.IsNaN(p) {
		return 0, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	p = math.Max(0, math.Min(100, p))
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo], true
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, true
}

// Join is an inner join of left with right on key. The named right columns
// are appended to left's; a name left already has gets a "_right" suffix.
// Each left row matches the first right row with an equal key. Left order is
// preserved.
func Join(left, right *Table, key string, take ...string) *Table {
	index := make(map[string]Record, right.Len())
	for _, r := range right.Records {
		k := r.Str(key)
		if _, ok := index[k]; !ok && k != "" {
			index[k] = r
		}
	}

	names := make([]string, len(take))
	extra := make([]Column, 0, len(take))
	for i, name := range take {
		c, ok := right.Schema.Column(name)
		if !ok {
			c = Column{Name: name}
		}
		c.Required = false
		c.Aliases = nil
		if left.Schema.Has(name) {
			c.Name = name + "_right"
		}
		names[i] = c.Name
		extra = append(extra, c)
	}

	out := NewTable(left.Schema.With(extra...))
	for _, l := range left.Records {
		r, ok := index[l.Str(key)]
		if !ok {
			continue
		}
		row := l.clone()
		for i, name := range take {
			row[names[i]] = r[name]
		}
		out.Records = append(out.Records, row)
	}
	return out
}

// GroupSum sums valueCol per distinct key. Groups keep the order of their
// first row; rows without a key are skipped.
func GroupSum(t *Table, key, valueCol string) *Table {
	out := NewTable(NewSchema(t.Schema.Name,
		Column{Name: key, Kind: KindString},
		Column{Name: valueCol, Kind: KindNumber},
	))

	sums := make(map[string]Record)
	for _, r := range t.Records {
		k := r.Str(key)
		if k == "" {
			continue
		}
		row, ok := sums[k]
		if !ok {
			row = Record{key: k, valueCol: nil}
			sums[k] = row
			out.Records = append(out.Records, row)
		}
		if v, ok := r.Num(valueCol); ok {
			prev, _ := row.Num(valueCol)
			row[valueCol] = prev + v
		}
	}
	return out
}

// Distinct returns the sorted distinct non-empty values of col.
func Distinct(t *Table, col string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Records {
		v := r.Str(col)
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
