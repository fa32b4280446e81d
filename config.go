package labordash

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the dashboard settings. Every field has a usable default; a
// YAML file only needs to name what it changes.
type Config struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	DataDir        string        `yaml:"data_dir"`
	FallbackDir    string        `yaml:"fallback_dir"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	TopN           int           `yaml:"top_n"`
	HTTP           HTTPConfig    `yaml:"http"`

	// MirrorURL is the base of http sources whose location is a bare path.
	MirrorURL string `yaml:"mirror_url"`

	// Datasets lists the sources of each dataset. Sources are tried by
	// ascending priority, ties in listed order.
	Datasets map[string][]SourceConfig `yaml:"datasets"`
}

type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	RateLimit  float64       `yaml:"rate_limit"`
	RateBurst  int           `yaml:"rate_burst"`
	MaxRetries int           `yaml:"max_retries"`
	UserAgent  string        `yaml:"user_agent"`
}

type SourceConfig struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Format   string `yaml:"format"`
	Location string `yaml:"location"`
	Priority int    `yaml:"priority"`
}

func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:8050",
		RequestTimeout: 30 * time.Second,
		DataDir:        "data",
		FallbackDir:    "/mnt/data",
		SessionTTL:     2 * time.Hour,
		TopN:           10,
		HTTP: HTTPConfig{
			Timeout:    15 * time.Second,
			RateLimit:  5,
			RateBurst:  5,
			MaxRetries: 0,
			UserAgent:  "labordash/1.0",
		},
		MirrorURL: DefaultMirrorURL,
		Datasets: map[string][]SourceConfig{
			DatasetNational:  defaultSources(DatasetNational, "national_M2024_dl.csv"),
			DatasetState:     defaultSources(DatasetState, "state_M2024_dl.csv"),
			DatasetMSA:       defaultSources(DatasetMSA, "MSA_M2024_dl.csv"),
			DatasetNatSector: defaultSources(DatasetNatSector, "natsector_M2024_dl.csv"),
		},
	}
}

// DefaultMirrorURL serves the OEWS CSV exports under their release file names.
const DefaultMirrorURL = "https://www.bls.gov/oes/special-requests"

// defaultSources puts the mirror ahead of the local copy of the same file.
func defaultSources(dataset, file string) []SourceConfig {
	return []SourceConfig{
		{Name: dataset + "-http", Kind: string(SourceHTTP), Format: string(FormatCSV), Location: file, Priority: 10},
		{Name: dataset + "-file", Kind: string(SourceFile), Format: string(FormatCSV), Location: file, Priority: 100},
	}
}

// resolveLocation joins a relative http location onto the mirror base.
func (c Config) resolveLocation(sc SourceConfig) string {
	if SourceKind(sc.Kind) != SourceHTTP || isAbsoluteURL(sc.Location) {
		return sc.Location
	}
	return strings.TrimRight(c.MirrorURL, "/") + "/" + strings.TrimLeft(sc.Location, "/")
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// LoadConfig overlays the YAML file at path onto the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, NewValidationError("addr", "must not be empty"))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, NewValidationError("request_timeout", "must not be negative"))
	}
	if c.TopN <= 0 {
		errs = append(errs, NewValidationError("top_n", "must be positive"))
	}
	if c.HTTP.MaxRetries < 0 {
		errs = append(errs, NewValidationError("http.max_retries", "must not be negative"))
	}
	for dataset, sources := range c.Datasets {
		if _, err := SchemaFor(dataset); err != nil {
			errs = append(errs, NewValidationError("datasets."+dataset, "unknown dataset"))
			continue
		}
		for i, src := range sources {
			field := fmt.Sprintf("datasets.%s[%d]", dataset, i)
			if src.Name == "" {
				errs = append(errs, NewValidationError(field+".name", "must not be empty"))
			}
			if src.Location == "" {
				errs = append(errs, NewValidationError(field+".location", "must not be empty"))
			} else if SourceKind(src.Kind) == SourceHTTP && !isAbsoluteURL(c.resolveLocation(src)) {
				errs = append(errs, NewValidationError(field+".location", "needs an absolute URL or mirror_url"))
			}
			switch SourceKind(src.Kind) {
			case SourceHTTP, SourceFile:
			default:
				errs = append(errs, NewValidationError(field+".kind", "must be http or file"))
			}
			switch Format(src.Format) {
			case FormatCSV, FormatJSON, "":
			default:
				errs = append(errs, NewValidationError(field+".format", "must be csv or json"))
			}
		}
	}
	return errors.Join(errs...)
}

// Descriptors builds the dataset descriptors named by the config.
func (c Config) Descriptors() []*Descriptor {
	names := []string{DatasetNational, DatasetState, DatasetMSA, DatasetNatSector}
	out := make([]*Descriptor, 0, len(names))
	for _, name := range names {
		schema, _ := SchemaFor(name)
		desc := &Descriptor{Name: name, Title: DatasetTitle(name), Schema: schema}
		for _, sc := range c.Datasets[name] {
			format := Format(sc.Format)
			if format == "" {
				format = FormatCSV
			}
			desc.Sources = append(desc.Sources, Source{
				Name:     sc.Name,
				Kind:     SourceKind(sc.Kind),
				Format:   format,
				Location: c.resolveLocation(sc),
				Priority: sc.Priority,
			})
		}
		out = append(out, desc)
	}
	return out
}

func (c Config) ClientConfig() *ClientConfig {
	cc := DefaultClientConfig()
	cc.Timeout = c.HTTP.Timeout
	cc.RateLimit = c.HTTP.RateLimit
	cc.RateBurst = c.HTTP.RateBurst
	cc.MaxRetries = c.HTTP.MaxRetries
	cc.UserAgent = c.HTTP.UserAgent
	return cc
}
