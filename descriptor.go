package labordash

type SourceKind string

const (
	SourceHTTP SourceKind = "http"
	SourceFile SourceKind = "file"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Source is one place a dataset can be loaded from. Location is a URL for
// HTTP sources and a path for file sources.
type Source struct {
	Name     string
	Kind     SourceKind
	Format   Format
	Location string
	Priority int
}

// Descriptor names a logical dataset, the sources it can come from and the
// schema its tables must conform to.
type Descriptor struct {
	Name    string
	Title   string
	Sources []Source
	Schema  *Schema
}
