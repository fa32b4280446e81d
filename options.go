package labordash

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Option func(*Pipeline)

func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

func WithMetrics(m Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithValidation puts a required validation stage first.
func WithValidation(fn func(*ViewRequest) error) Option {
	return func(p *Pipeline) {
		stage := NewStage("validation", true, func(ctx context.Context, state *State) error {
			return fn(state.Request())
		})
		p.stages = append([]Stage{stage}, p.stages...)
	}
}

func WithStage(stage Stage) Option {
	return func(p *Pipeline) {
		p.AddStage(stage)
	}
}

func WithMiddleware(m Middleware) Option {
	return func(p *Pipeline) {
		p.Use(m)
	}
}

// WithDatasets adds a load stage for a fixed list of datasets.
func WithDatasets(names ...string) Option {
	return func(p *Pipeline) {
		p.AddStage(NewLoadStage(fixedDatasets(names...)))
	}
}

// WithDatasetsFor adds a load stage whose datasets depend on the request.
func WithDatasetsFor(fn func(*ViewRequest) []string) Option {
	return func(p *Pipeline) {
		p.AddStage(NewLoadStage(fn))
	}
}

func WithBuilder(build func(state *State) (*Page, error)) Option {
	return func(p *Pipeline) {
		p.AddStage(NewBuildStage(build))
	}
}
