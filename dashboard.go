package labordash

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrOccupationNotFound = errors.New("occupation not found")

// View names.
const (
	ViewTopOccupations    = "top_occupations"
	ViewOccupationList    = "occupations"
	ViewUSMedian          = "us_median"
	ViewWageDistribution  = "wage_distribution"
	ViewTopGeographies    = "top_geographies"
	ViewConcentration     = "employment_concentration"
	ViewGeoPercentiles    = "geography_percentiles"
	ViewIndustryMix       = "industry_mix"
	ViewIndustryOccupants = "industry_occupations"
)

// Dashboard owns the sessions and the pipeline of every page kind.
type Dashboard struct {
	cfg        Config
	sessions   *SessionStore
	overview   *Pipeline
	occupation *Pipeline
	industry   *Pipeline
}

type DashboardOption func(*dashboardOptions)

type dashboardOptions struct {
	logger  *zap.Logger
	metrics Metrics
	now     func() time.Time
}

func DashboardWithLogger(logger *zap.Logger) DashboardOption {
	return func(o *dashboardOptions) {
		o.logger = logger
	}
}

func DashboardWithMetrics(m Metrics) DashboardOption {
	return func(o *dashboardOptions) {
		o.metrics = m
	}
}

func DashboardWithClock(now func() time.Time) DashboardOption {
	return func(o *dashboardOptions) {
		o.now = now
	}
}

func NewDashboard(cfg Config, loader Loader, opts ...DashboardOption) *Dashboard {
	o := dashboardOptions{logger: zap.NewNop(), metrics: NoopMetrics{}, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	common := []Option{
		WithTimeout(cfg.RequestTimeout),
		WithLogger(o.logger),
		WithMetrics(o.metrics),
		WithMiddleware(RecoveryMiddleware()),
		WithMiddleware(LoggingMiddleware(o.logger)),
	}
	pipeline := func(name string, opts ...Option) *Pipeline {
		all := append(append([]Option(nil), common...), opts...)
		return NewPipeline(name, all...)
	}

	d := &Dashboard{
		cfg:      cfg,
		sessions: NewSessionStore(loader, cfg.SessionTTL, o.now),
	}
	occupationData := func(req *ViewRequest) []string {
		return []string{DatasetNational, req.Level.Dataset(), DatasetNatSector}
	}

	d.overview = pipeline("overview",
		WithDatasets(DatasetNational),
		WithStage(availabilityStage(fixedDatasets(DatasetNational))),
		WithBuilder(d.buildOverview),
	)
	d.occupation = pipeline("occupation",
		WithValidation((*ViewRequest).ValidateOccupation),
		WithDatasetsFor(occupationData),
		WithStage(availabilityStage(occupationData)),
		WithBuilder(d.buildOccupation),
	)
	d.industry = pipeline("industry",
		WithDatasets(DatasetNatSector, DatasetNational),
		WithStage(availabilityStage(fixedDatasets(DatasetNatSector, DatasetNational))),
		WithBuilder(d.buildIndustry),
	)
	return d
}

func fixedDatasets(names ...string) func(*ViewRequest) []string {
	return func(*ViewRequest) []string { return names }
}

// availabilityStage fails, without stopping the run, when a loaded dataset
// is degraded. The error carries every source's failure.
func availabilityStage(datasets func(*ViewRequest) []string) Stage {
	return NewStage("availability", false, func(ctx context.Context, state *State) error {
		var errs []error
		for _, name := range state.Degraded(datasets(state.Request())...) {
			res, _ := state.Result(name)
			errs = append(errs, fmt.Errorf("dataset %s degraded: %w", name, res.Err()))
		}
		return errors.Join(errs...)
	})
}

// Session returns the session with id, creating one when id is unknown.
func (d *Dashboard) Session(id string) (*Session, bool) {
	return d.sessions.Get(id)
}

func (d *Dashboard) Sessions() *SessionStore { return d.sessions }

func (d *Dashboard) Overview(ctx context.Context, sess *Session) (*Page, error) {
	req := &ViewRequest{}
	req.Normalize(d.cfg.TopN)
	return d.overview.Execute(ctx, sess, req)
}

func (d *Dashboard) Occupation(ctx context.Context, sess *Session, req ViewRequest) (*Page, error) {
	req.Normalize(d.cfg.TopN)
	return d.occupation.Execute(ctx, sess, &req)
}

func (d *Dashboard) Industry(ctx context.Context, sess *Session, req ViewRequest) (*Page, error) {
	req.Normalize(d.cfg.TopN)
	return d.industry.Execute(ctx, sess, &req)
}

func (d *Dashboard) buildOverview(state *State) (*Page, error) {
	req := state.Request()
	national := state.Table(DatasetNational)
	degraded := state.Degraded(DatasetNational) != nil
	sources := state.Sources(DatasetNational)

	us := &View{Name: ViewUSMedian, Title: "U.S. median annual wage", Degraded: degraded, Sources: sources}
	if v, ok := USMedianWage(national); ok {
		us.Points = []Point{{Label: "All occupations", Value: Number{Value: v, Valid: true}}}
	}

	return &Page{
		Title:   "Occupations",
		Request: *req,
		Views: []*View{
			us,
			{
				Name:     ViewTopOccupations,
				Title:    "Largest occupations by employment",
				XLabel:   "Occupation",
				YLabel:   "Employment",
				Table:    TopOccupations(national, req.TopN),
				Degraded: degraded,
				Sources:  sources,
			},
			{
				Name:     ViewOccupationList,
				Title:    "All occupations (A-Z)",
				Table:    OccupationList(national),
				Degraded: degraded,
				Sources:  sources,
			},
		},
		Unavailable: state.Degraded(DatasetNational),
	}, nil
}

func (d *Dashboard) buildOccupation(state *State) (*Page, error) {
	req := state.Request()
	areaDataset := req.Level.Dataset()
	national := state.Table(DatasetNational)
	area := state.Table(areaDataset)
	sector := state.Table(DatasetNatSector)

	nationalDown := state.Degraded(DatasetNational) != nil
	areaDown := state.Degraded(areaDataset) != nil
	sectorDown := state.Degraded(DatasetNatSector) != nil

	page := &Page{
		Request:     *req,
		Title:       req.Occupation,
		Unavailable: state.Degraded(DatasetNational, areaDataset, DatasetNatSector),
	}

	if snap, ok := SnapshotFor(national, req.Occupation); ok {
		page.Snapshot = &snap
		if snap.Title != "" {
			page.Title = snap.Title
		}
	} else if !nationalDown {
		return nil, ErrOccupationNotFound
	}

	levelName := "State"
	if req.Level == LevelMSA {
		levelName = "Metropolitan area"
	}

	page.Views = []*View{
		{
			Name:     ViewWageDistribution,
			Title:    "Annual wage distribution",
			XLabel:   "Percentile",
			YLabel:   "Annual wage ($)",
			Points:   WageDistribution(national, req.Occupation),
			Degraded: nationalDown,
			Sources:  state.Sources(DatasetNational),
		},
		{
			Name:     ViewTopGeographies,
			Title:    "Highest paying " + strings.ToLower(levelName) + "s",
			XLabel:   levelName,
			YLabel:   "Median annual wage ($)",
			Table:    TopGeographies(area, req.Occupation, req.Level, req.TopN),
			Degraded: areaDown,
			Sources:  state.Sources(areaDataset),
		},
		{
			Name:     ViewGeoPercentiles,
			Title:    "Spread of " + strings.ToLower(levelName) + " median wages",
			XLabel:   "Percentile",
			YLabel:   "Median annual wage ($)",
			Points:   GeographyWagePercentiles(area, req.Occupation, req.Level),
			Degraded: areaDown,
			Sources:  state.Sources(areaDataset),
		},
		{
			Name:     ViewConcentration,
			Title:    "Employment concentration",
			XLabel:   levelName,
			YLabel:   "Location quotient",
			Table:    EmploymentConcentration(area, national, req.Occupation, req.Level, req.TopN),
			Degraded: areaDown,
			Sources:  state.Sources(areaDataset),
		},
		{
			Name:     ViewIndustryMix,
			Title:    "Industry mix",
			XLabel:   "Industry",
			YLabel:   "Share of employment (%)",
			Table:    IndustryMix(sector, req.Occupation, req.TopN),
			Degraded: sectorDown,
			Sources:  state.Sources(DatasetNatSector),
		},
	}
	return page, nil
}

func (d *Dashboard) buildIndustry(state *State) (*Page, error) {
	req := state.Request()
	sector := state.Table(DatasetNatSector)
	national := state.Table(DatasetNational)

	page := &Page{
		Title:       "Industries",
		Request:     *req,
		Options:     Industries(sector),
		Unavailable: state.Degraded(DatasetNatSector, DatasetNational),
	}
	if req.Industry == "" {
		return page, nil
	}

	page.Title = req.Industry
	page.Views = []*View{
		{
			Name:     ViewIndustryOccupants,
			Title:    "Largest occupations in " + req.Industry,
			XLabel:   "Occupation",
			YLabel:   "Employment",
			Table:    OccupationsInIndustry(sector, national, req.Industry, req.TopN),
			Degraded: state.Degraded(DatasetNatSector, DatasetNational) != nil,
			Sources:  append(state.Sources(DatasetNatSector), state.Sources(DatasetNational)...),
		},
	}
	return page, nil
}
