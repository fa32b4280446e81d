package labordash

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Attempt pairs a fetcher with the normalizer applied to its output.
type Attempt struct {
	Fetcher    Fetcher
	Normalizer Normalizer
}

// Result is the outcome of loading one dataset. When Degraded is set Table
// is the chain's default and Errors holds one entry per failed attempt.
type Result struct {
	Dataset  string
	Table    *Table
	Source   string
	Degraded bool
	Errors   []error
	LoadedAt time.Time
}

// Err joins the attempt errors, or returns nil.
func (r *Result) Err() error {
	return errors.Join(r.Errors...)
}

// FallbackChain tries its attempts strictly in order and returns the first
// one that fetches and normalizes to a non-empty table. Results are never
// merged across sources.
type FallbackChain struct {
	desc         *Descriptor
	attempts     []Attempt
	defaultTable *Table
	logger       *zap.Logger
	metrics      Metrics
	now          func() time.Time
}

type ChainOption func(*FallbackChain)

func NewFallbackChain(desc *Descriptor, opts ...ChainOption) *FallbackChain {
	chain := &FallbackChain{
		desc:     desc,
		attempts: make([]Attempt, 0),
		logger:   zap.NewNop(),
		metrics:  NoopMetrics{},
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(chain)
	}

	sort.SliceStable(chain.attempts, func(i, j int) bool {
		return chain.attempts[i].Fetcher.Priority() < chain.attempts[j].Fetcher.Priority()
	})

	if chain.defaultTable == nil {
		chain.defaultTable = EmptyTable(desc.Schema)
	}

	return chain
}

func ChainWithAttempt(f Fetcher, n Normalizer) ChainOption {
	return func(c *FallbackChain) {
		c.attempts = append(c.attempts, Attempt{Fetcher: f, Normalizer: n})
	}
}

// ChainWithDefault sets the table returned in degraded mode.
func ChainWithDefault(t *Table) ChainOption {
	return func(c *FallbackChain) {
		c.defaultTable = t
	}
}

func ChainWithLogger(logger *zap.Logger) ChainOption {
	return func(c *FallbackChain) {
		c.logger = logger
	}
}

func ChainWithMetrics(m Metrics) ChainOption {
	return func(c *FallbackChain) {
		c.metrics = m
	}
}

func ChainWithClock(now func() time.Time) ChainOption {
	return func(c *FallbackChain) {
		c.now = now
	}
}

func (c *FallbackChain) Descriptor() *Descriptor { return c.desc }

func (c *FallbackChain) AttemptCount() int { return len(c.attempts) }

// SourceNames lists the attempts in the order they are tried.
func (c *FallbackChain) SourceNames() []string {
	names := make([]string, len(c.attempts))
	for i, a := range c.attempts {
		names[i] = a.Fetcher.Name()
	}
	return names
}

// Load runs the attempts. The only error it returns is the context's; every
// source failure is reported through a degraded Result.
func (c *FallbackChain) Load(ctx context.Context) (*Result, error) {
	var errs []error

	for _, attempt := range c.attempts {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		name := attempt.Fetcher.Name()
		start := c.now()
		table, err := c.try(ctx, attempt)
		c.metrics.RecordAttempt(c.desc.Name, name, c.now().Sub(start), err)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("dataset source failed",
				zap.String("dataset", c.desc.Name),
				zap.String("source", name),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}

		c.logger.Debug("dataset loaded",
			zap.String("dataset", c.desc.Name),
			zap.String("source", name),
			zap.Int("rows", table.Len()),
		)
		c.metrics.RecordFetchSource(c.desc.Name, name)
		return &Result{
			Dataset:  c.desc.Name,
			Table:    table,
			Source:   name,
			Errors:   errs,
			LoadedAt: c.now(),
		}, nil
	}

	if len(c.attempts) == 0 {
		errs = append(errs, ErrNoAttempts)
	}

	c.logger.Error("dataset unavailable from every source",
		zap.String("dataset", c.desc.Name),
		zap.Int("attempts", len(c.attempts)),
		zap.Error(errors.Join(errs...)),
	)
	c.metrics.RecordDegraded(c.desc.Name)
	return &Result{
		Dataset:  c.desc.Name,
		Table:    c.defaultTable,
		Degraded: true,
		Errors:   errs,
		LoadedAt: c.now(),
	}, nil
}

func (c *FallbackChain) try(ctx context.Context, attempt Attempt) (*Table, error) {
	raw, err := attempt.Fetcher.Fetch(ctx, c.desc)
	if err != nil {
		return nil, err
	}

	table, err := attempt.Normalizer.Normalize(raw, c.desc)
	if err != nil {
		var mismatch *SchemaMismatchError
		if errors.As(err, &mismatch) && mismatch.Source == "" {
			mismatch.Source = attempt.Fetcher.Name()
		}
		return nil, err
	}

	if table.Empty() {
		return nil, NewUnavailableError(c.desc.Name, attempt.Fetcher.Name(), "no rows", ErrEmptyTable)
	}
	return table, nil
}
