package labordash

import (
	"sort"
	"sync"
	"time"
)

type Metrics interface {
	RecordStageDuration(pipeline, stage string, duration time.Duration)
	RecordAttempt(dataset, source string, duration time.Duration, err error)
	RecordFetchSource(dataset, source string)
	RecordDegraded(dataset string)
	RecordError(pipeline, stage, errorType string)
}

type NoopMetrics struct{}

func (NoopMetrics) RecordStageDuration(string, string, time.Duration)  {}
func (NoopMetrics) RecordAttempt(string, string, time.Duration, error) {}
func (NoopMetrics) RecordFetchSource(string, string)                   {}
func (NoopMetrics) RecordDegraded(string)                              {}
func (NoopMetrics) RecordError(string, string, string)                 {}

// SourceStats counts attempts against one dataset source.
type SourceStats struct {
	Dataset   string        `json:"dataset"`
	Source    string        `json:"source"`
	Attempts  int           `json:"attempts"`
	Failures  int           `json:"failures"`
	Wins      int           `json:"wins"`
	TotalTime time.Duration `json:"total_time_ns"`
}

type StatsSnapshot struct {
	Sources  []SourceStats  `json:"sources"`
	Degraded map[string]int `json:"degraded"`
	Errors   map[string]int `json:"errors"`
}

// Counters is an in-memory Metrics implementation.
type Counters struct {
	mu       sync.Mutex
	sources  map[[2]string]*SourceStats
	degraded map[string]int
	errors   map[string]int
}

func NewCounters() *Counters {
	return &Counters{
		sources:  make(map[[2]string]*SourceStats),
		degraded: make(map[string]int),
		errors:   make(map[string]int),
	}
}

func (c *Counters) source(dataset, source string) *SourceStats {
	key := [2]string{dataset, source}
	s, ok := c.sources[key]
	if !ok {
		s = &SourceStats{Dataset: dataset, Source: source}
		c.sources[key] = s
	}
	return s
}

func (c *Counters) RecordStageDuration(string, string, time.Duration) {}

func (c *Counters) RecordAttempt(dataset, source string, d time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.source(dataset, source)
	s.Attempts++
	s.TotalTime += d
	if err != nil {
		s.Failures++
	}
}

func (c *Counters) RecordFetchSource(dataset, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source(dataset, source).Wins++
}

func (c *Counters) RecordDegraded(dataset string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.degraded[dataset]++
}

func (c *Counters) RecordError(pipeline, stage, errorType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors[pipeline+"/"+stage+"/"+errorType]++
}

func (c *Counters) Snapshot() StatsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := StatsSnapshot{
		Sources:  make([]SourceStats, 0, len(c.sources)),
		Degraded: make(map[string]int, len(c.degraded)),
		Errors:   make(map[string]int, len(c.errors)),
	}
	for _, s := range c.sources {
		out.Sources = append(out.Sources, *s)
	}
	sort.Slice(out.Sources, func(i, j int) bool {
		if out.Sources[i].Dataset != out.Sources[j].Dataset {
			return out.Sources[i].Dataset < out.Sources[j].Dataset
		}
		return out.Sources[i].Source < out.Sources[j].Source
	})
	for k, v := range c.degraded {
		out.Degraded[k] = v
	}
	for k, v := range c.errors {
		out.Errors[k] = v
	}
	return out
}
