package labordash

// Deriver adds or rewrites columns of a freshly normalized table, or drops
// rows from it. Derivers run in order after type coercion.
type Deriver interface {
	Name() string
	CanDerive(schema *Schema) bool
	Derive(t *Table) (*Table, error)
	Required() bool
}

type BaseDeriver struct {
	name     string
	needs    []string
	required bool
}

type DeriverOption func(*BaseDeriver)

func NewBaseDeriver(name string, opts ...DeriverOption) BaseDeriver {
	d := BaseDeriver{name: name}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// DeriverWithNeeds restricts the deriver to schemas carrying every named column.
func DeriverWithNeeds(columns ...string) DeriverOption {
	return func(d *BaseDeriver) {
		d.needs = columns
	}
}

func DeriverWithRequired(required bool) DeriverOption {
	return func(d *BaseDeriver) {
		d.required = required
	}
}

func (d BaseDeriver) Name() string    { return d.name }
func (d BaseDeriver) Required() bool  { return d.required }
func (d BaseDeriver) Needs() []string { return d.needs }

func (d BaseDeriver) CanDerive(schema *Schema) bool {
	for _, col := range d.needs {
		if !schema.Has(col) {
			return false
		}
	}
	return true
}

// FuncDeriver adapts a function to a Deriver.
type FuncDeriver struct {
	BaseDeriver
	fn func(t *Table) (*Table, error)
}

func NewDeriver(name string, fn func(t *Table) (*Table, error), opts ...DeriverOption) *FuncDeriver {
	return &FuncDeriver{BaseDeriver: NewBaseDeriver(name, opts...), fn: fn}
}

func (d *FuncDeriver) Derive(t *Table) (*Table, error) {
	return d.fn(t)
}

// CompositeDeriver applies derivers sequentially. A failing required deriver
// stops the run; optional failures are collected and the table passes through
// unchanged.
type CompositeDeriver struct {
	derivers []Deriver
}

func NewCompositeDeriver(derivers ...Deriver) *CompositeDeriver {
	return &CompositeDeriver{derivers: derivers}
}

func (c *CompositeDeriver) Add(d Deriver) {
	c.derivers = append(c.derivers, d)
}

func (c *CompositeDeriver) DeriverCount() int {
	return len(c.derivers)
}

func (c *CompositeDeriver) Derive(t *Table) (*Table, []error) {
	var errs []error

	for _, d := range c.derivers {
		if !d.CanDerive(t.Schema) {
			continue
		}

		out, err := d.Derive(t)
		if err != nil {
			if d.Required() {
				return nil, []error{NewDeriveError(d.Name(), "required derivation failed", err)}
			}
			errs = append(errs, NewDeriveError(d.Name(), "derivation failed", err))
			continue
		}
		t = out
	}

	return t, errs
}

// AddColumn returns a copy of t with col appended, its value on each record
// computed by fn.
func AddColumn(t *Table, col Column, fn func(Record) any) *Table {
	out := NewTable(t.Schema.With(col))
	out.Records = make([]Record, 0, t.Len())
	for _, r := range t.Records {
		row := r.clone()
		row[col.Name] = fn(r)
		out.Records = append(out.Records, row)
	}
	return out
}
