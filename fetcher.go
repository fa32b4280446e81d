package labordash

import "context"

// RawTable is undecoded tabular data: a header and rows of cell text, as
// read from a source before normalization.
type RawTable struct {
	Header []string
	Rows   [][]string
}

type Fetcher interface {
	Name() string
	Priority() int
	Fetch(ctx context.Context, desc *Descriptor) (*RawTable, error)
}

type BaseFetcher struct {
	name     string
	priority int
}

func NewBaseFetcher(name string, priority int) BaseFetcher {
	return BaseFetcher{name: name, priority: priority}
}

func (f BaseFetcher) Name() string  { return f.name }
func (f BaseFetcher) Priority() int { return f.priority }

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc struct {
	BaseFetcher
	fn func(ctx context.Context, desc *Descriptor) (*RawTable, error)
}

func NewFetcherFunc(name string, priority int, fn func(ctx context.Context, desc *Descriptor) (*RawTable, error)) *FetcherFunc {
	return &FetcherFunc{BaseFetcher: NewBaseFetcher(name, priority), fn: fn}
}

func (f *FetcherFunc) Fetch(ctx context.Context, desc *Descriptor) (*RawTable, error) {
	return f.fn(ctx, desc)
}
