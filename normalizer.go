package labordash

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type Normalizer interface {
	Normalize(raw *RawTable, desc *Descriptor) (*Table, error)
}

// SchemaNormalizer maps raw headers onto the descriptor's schema, coerces
// cell text to each column's kind and then runs its derivers.
type SchemaNormalizer struct {
	derivers *CompositeDeriver
	logger   *zap.Logger
}

type NormalizerOption func(*SchemaNormalizer)

func NormalizerWithDeriver(d Deriver) NormalizerOption {
	return func(n *SchemaNormalizer) {
		n.derivers.Add(d)
	}
}

func NormalizerWithLogger(logger *zap.Logger) NormalizerOption {
	return func(n *SchemaNormalizer) {
		n.logger = logger
	}
}

func NewSchemaNormalizer(opts ...NormalizerOption) *SchemaNormalizer {
	n := &SchemaNormalizer{
		derivers: NewCompositeDeriver(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *SchemaNormalizer) Normalize(raw *RawTable, desc *Descriptor) (*Table, error) {
	if raw == nil {
		return nil, NewSchemaMismatchError(desc.Name, desc.Schema.Names(), nil)
	}

	index := headerIndex(raw.Header)
	positions := make([]int, len(desc.Schema.Columns))
	var missing []string
	for i, col := range desc.Schema.Columns {
		positions[i] = lookupColumn(index, col)
		if positions[i] < 0 && col.Required {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		return nil, NewSchemaMismatchError(desc.Name, missing, nil)
	}

	hasRequired := false
	for _, col := range desc.Schema.Columns {
		hasRequired = hasRequired || col.Required
	}

	table := NewTable(desc.Schema)
	table.Records = make([]Record, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		rec := make(Record, len(desc.Schema.Columns))
		blank := true
		for i, col := range desc.Schema.Columns {
			var cell string
			if p := positions[i]; p >= 0 && p < len(row) {
				cell = row[p]
			}
			v := coerce(col.Kind, cell)
			if v != nil && (col.Required || !hasRequired) {
				blank = false
			}
			rec[col.Name] = v
		}
		if blank {
			continue
		}
		table.Records = append(table.Records, rec)
	}

	out, errs := n.derivers.Derive(table)
	if out == nil {
		return nil, NewSchemaMismatchError(desc.Name, nil, errs[0])
	}
	for _, err := range errs {
		n.logger.Warn("optional derivation skipped", zap.String("dataset", desc.Name), zap.Error(err))
	}
	return out, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToUpper(strings.TrimSpace(h))
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}
	return index
}

func lookupColumn(index map[string]int, col Column) int {
	if i, ok := index[strings.ToUpper(col.Name)]; ok {
		return i
	}
	for _, alias := range col.Aliases {
		if i, ok := index[strings.ToUpper(alias)]; ok {
			return i
		}
	}
	return -1
}

func coerce(kind Kind, cell string) any {
	cell = strings.TrimSpace(cell)
	if kind == KindString {
		if cell == "" {
			return nil
		}
		return cell
	}
	if v, ok := ParseNumber(cell); ok {
		return v
	}
	return nil
}

// ParseNumber parses published statistics text. Suppression markers ("**",
// "#", "*", "~", dashes) and anything unparsable yield false.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	switch s {
	case "", "*", "**", "#", "~", "-", "—", "–", "NA", "N/A", "nan", "NaN":
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
