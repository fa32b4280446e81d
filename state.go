package labordash

import "sync"

// State is the working set of one view pipeline run.
type State struct {
	mu      sync.RWMutex
	request *ViewRequest
	session *Session
	results map[string]*Result
	page    *Page
	errors  []error
}

func NewState(sess *Session, req *ViewRequest) *State {
	return &State{
		request: req,
		session: sess,
		results: make(map[string]*Result),
		errors:  make([]error, 0),
	}
}

func (s *State) Request() *ViewRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.request
}

func (s *State) Session() *Session {
	return s.session
}

func (s *State) SetResult(dataset string, res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[dataset] = res
}

func (s *State) Result(dataset string) (*Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[dataset]
	return res, ok
}

// Table returns the loaded table of dataset, or an empty one with the
// dataset's schema when it was not loaded.
func (s *State) Table(dataset string) *Table {
	if res, ok := s.Result(dataset); ok && res.Table != nil {
		return res.Table
	}
	schema, err := SchemaFor(dataset)
	if err != nil {
		schema = NewSchema(dataset)
	}
	return EmptyTable(schema)
}

// Degraded lists the loaded datasets no source could provide.
func (s *State) Degraded(datasets ...string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, name := range datasets {
		if res, ok := s.results[name]; ok && res.Degraded {
			out = append(out, name)
		}
	}
	return out
}

func (s *State) Sources(dataset string) []string {
	if res, ok := s.Result(dataset); ok && res.Source != "" {
		return []string{res.Source}
	}
	return nil
}

func (s *State) SetPage(p *Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = p
}

func (s *State) Page() *Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

func (s *State) AddError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, err)
}

func (s *State) Errors() []error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errors
}

func (s *State) HasErrors() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.errors) > 0
}
