package labordash

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Catalog maps dataset names to the fallback chains that load them.
type Catalog struct {
	chains map[string]*FallbackChain
}

func NewCatalog(chains ...*FallbackChain) *Catalog {
	c := &Catalog{chains: make(map[string]*FallbackChain, len(chains))}
	for _, chain := range chains {
		c.Register(chain)
	}
	return c
}

func (c *Catalog) Register(chain *FallbackChain) {
	c.chains[chain.Descriptor().Name] = chain
}

func (c *Catalog) Chain(name string) (*FallbackChain, bool) {
	chain, ok := c.chains[name]
	return chain, ok
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.chains))
	for name := range c.chains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Load(ctx context.Context, name string) (*Result, error) {
	chain, ok := c.chains[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}
	return chain.Load(ctx)
}

// BuildCatalog wires a fallback chain for every dataset in cfg, with one
// attempt per configured source.
func BuildCatalog(cfg Config, logger *zap.Logger, metrics Metrics) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	client := NewClient(cfg.ClientConfig())
	catalog := NewCatalog()

	for _, desc := range cfg.Descriptors() {
		normalizer := NormalizerFor(desc.Name, NormalizerWithLogger(logger))
		opts := []ChainOption{
			ChainWithLogger(logger),
			ChainWithMetrics(metrics),
		}
		for _, src := range desc.Sources {
			fetcher, err := NewSourceFetcher(src, client, cfg.DataDir, cfg.FallbackDir)
			if err != nil {
				return nil, fmt.Errorf("dataset %s: %w", desc.Name, err)
			}
			opts = append(opts, ChainWithAttempt(fetcher, normalizer))
		}
		catalog.Register(NewFallbackChain(desc, opts...))
	}

	return catalog, nil
}

func NewSourceFetcher(src Source, client *Client, dataDir, fallbackDir string) (Fetcher, error) {
	switch src.Kind {
	case SourceHTTP:
		return NewHTTPFetcher(client, src), nil
	case SourceFile:
		return NewFileFetcher(src, dataDir, fallbackDir), nil
	default:
		return nil, fmt.Errorf("source %s: unsupported kind %q", src.Name, src.Kind)
	}
}
