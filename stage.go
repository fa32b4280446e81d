package labordash

import "context"

type Stage interface {
	Name() string
	Execute(ctx context.Context, state *State) error
	Required() bool
}

type FunctionalStage struct {
	name     string
	fn       StageFunc
	required bool
}

func NewStage(name string, required bool, fn StageFunc) *FunctionalStage {
	return &FunctionalStage{
		name:     name,
		fn:       fn,
		required: required,
	}
}

func (s *FunctionalStage) Name() string   { return s.name }
func (s *FunctionalStage) Required() bool { return s.required }
func (s *FunctionalStage) Execute(ctx context.Context, state *State) error {
	return s.fn(ctx, state)
}

// LoadStage loads datasets through the run's session. Unavailable data is
// not an error here: it arrives as a degraded Result.
type LoadStage struct {
	datasets func(req *ViewRequest) []string
}

func NewLoadStage(datasets func(req *ViewRequest) []string) *LoadStage {
	return &LoadStage{datasets: datasets}
}

func (s *LoadStage) Name() string   { return "load" }
func (s *LoadStage) Required() bool { return true }

func (s *LoadStage) Execute(ctx context.Context, state *State) error {
	for _, name := range s.datasets(state.Request()) {
		res, err := state.Session().Load(ctx, name)
		if err != nil {
			return err
		}
		state.SetResult(name, res)
	}
	return nil
}

// BuildStage turns the loaded tables into the page.
type BuildStage struct {
	build func(state *State) (*Page, error)
}

func NewBuildStage(build func(state *State) (*Page, error)) *BuildStage {
	return &BuildStage{build: build}
}

func (s *BuildStage) Name() string   { return "build" }
func (s *BuildStage) Required() bool { return true }

func (s *BuildStage) Execute(ctx context.Context, state *State) error {
	page, err := s.build(state)
	if err != nil {
		return err
	}
	state.SetPage(page)
	return nil
}
