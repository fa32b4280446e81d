package labordash

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultPipelineTimeout bounds a run when no WithTimeout option is given.
const DefaultPipelineTimeout = 30 * time.Second

// Pipeline runs the fetch-compute cycle of one kind of page.
type Pipeline struct {
	name       string
	stages     []Stage
	middleware []Middleware
	timeout    time.Duration
	metrics    Metrics
	logger     *zap.Logger
}

func NewPipeline(name string, opts ...Option) *Pipeline {
	p := &Pipeline{
		name:    name,
		stages:  make([]Stage, 0),
		timeout: DefaultPipelineTimeout,
		metrics: NoopMetrics{},
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Execute runs every stage against a fresh State holding a copy of req and
// returns the page the stages built. A failed optional stage is logged and
// the run goes on.
func (p *Pipeline) Execute(ctx context.Context, sess *Session, req *ViewRequest) (*Page, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	state := NewState(sess, req.Clone())

	for _, stage := range p.stages {
		if ctx.Err() != nil {
			return nil, NewStageError(p.name, stage.Name(), "execute", ctx.Err())
		}

		stageStart := time.Now()
		err := p.executeStage(ctx, stage, state)
		p.metrics.RecordStageDuration(p.name, stage.Name(), time.Since(stageStart))

		if err != nil {
			p.metrics.RecordError(p.name, stage.Name(), "execution_error")
			if stage.Required() {
				return nil, NewStageError(p.name, stage.Name(), "execute", err)
			}
			state.AddError(err)
		}
	}

	if state.HasErrors() {
		p.logger.Warn("optional stages failed", zap.String("pipeline", p.name), zap.Errors("errors", state.Errors()))
	}

	page := state.Page()
	if page == nil {
		page = &Page{Request: *state.Request()}
	}
	return page, nil
}

func (p *Pipeline) executeStage(ctx context.Context, stage Stage, state *State) error {
	execute := stage.Execute

	for i := len(p.middleware) - 1; i >= 0; i-- {
		execute = p.middleware[i](stage.Name(), execute)
	}

	return execute(ctx, state)
}

func (p *Pipeline) AddStage(stage Stage) {
	p.stages = append(p.stages, stage)
}

func (p *Pipeline) Use(m Middleware) {
	p.middleware = append(p.middleware, m)
}

func (p *Pipeline) Name() string {
	return p.name
}

func (p *Pipeline) StageCount() int {
	return len(p.stages)
}
