package labordash_test

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nulllvoid/labordash"
)

const nationalCSV = `OCC_CODE,OCC_TITLE,O_GROUP,TOT_EMP,JOBS_1000,A_MEAN,A_PCT10,A_PCT25,A_MEDIAN,A_PCT75,A_PCT90,H_MEDIAN
00-0000,All Occupations,total,"150,000,000",1000,60000,20000,30000,50000,75000,110000,24.04
15-0000,Computer and Mathematical Occupations,major,5000000,33.3,100000,50000,70000,98000,130000,160000,47.12
15-1252,Software Developers,detailed,1600000,10.0,50000,20000,30000,45000,70000,90000,21.63
29-1141,Registered Nurses,detailed,3200000,21.3,90000,60000,70000,85000,100000,130000,40.87
35-3023,Fast Food and Counter Workers,detailed,3500000,23.3,30000,*,25000,#,32000,38000,14.00
11-1011,Chief Executives,detailed,200000,1.3,250000,80000,130000,**,**,**,**
`

const stateCSV = `AREA_TITLE,AREA_TYPE,OCC_CODE,OCC_TITLE,TOT_EMP,JOBS_1000,LOC_QUOTIENT,A_MEDIAN
California,2,15-1252,Software Developers,400000,22.0,2.05,170000
Washington,2,15-1252,Software Developers,100000,28.0,2.6,165000
Texas,2,15-1252,Software Developers,150000,11.0,1.02,130000
Mississippi,2,15-1252,Software Developers,3000,2.6,0.24,90000
Guam,3,15-1252,Software Developers,100,1.0,0.1,60000
California,2,29-1141,Registered Nurses,320000,18.0,0.85,140000
`

const msaCSV = `AREA_TITLE,AREA_TYPE,OCC_CODE,OCC_TITLE,TOT_EMP,JOBS_1000,LOC_Q,A_MEDIAN
"San Jose-Sunnyvale-Santa Clara, CA",4,15-1252,Software Developers,90000,80.0,**,210000
"Seattle-Tacoma-Bellevue, WA",4,15-1252,Software Developers,95000,45.0,**,180000
"Austin-Round Rock-Georgetown, TX",4,15-1252,Software Developers,40000,30.0,**,150000
`

const natsectorCSV = `OCC_CODE,OCC_TITLE,NAICS,NAICS_TITLE,TOT_EMP,PCT_TOTAL
15-1252,Software Developers,54,Sector: Professional and Technical Services,700000,43.75
15-1252,Software Developers,51,Sector: Information,300000,18.75
15-1252,Software Developers,52,Sector: Finance and Insurance,150000,9.38
29-1141,Registered Nurses,62,Sector: Health Care and Social Assistance,2800000,87.5
29-1141,Registered Nurses,54,Sector: Professional and Technical Services,20000,0.63
`

var fixtures = map[string]string{
	labordash.DatasetNational:  nationalCSV,
	labordash.DatasetState:     stateCSV,
	labordash.DatasetMSA:       msaCSV,
	labordash.DatasetNatSector: natsectorCSV,
}

func descriptorFor(t testing.TB, dataset string) *labordash.Descriptor {
	t.Helper()
	schema, err := labordash.SchemaFor(dataset)
	require.NoError(t, err)
	return &labordash.Descriptor{Name: dataset, Title: labordash.DatasetTitle(dataset), Schema: schema}
}

func rawCSV(t testing.TB, body string) *labordash.RawTable {
	t.Helper()
	raw, err := labordash.DecodeCSV(strings.NewReader(body))
	require.NoError(t, err)
	return raw
}

// fixtureTable normalizes a CSV fixture the way the dataset's loader would.
func fixtureTable(t testing.TB, dataset, body string) *labordash.Table {
	t.Helper()
	table, err := labordash.NormalizerFor(dataset).Normalize(rawCSV(t, body), descriptorFor(t, dataset))
	require.NoError(t, err)
	return table
}

type mockFetcher struct {
	labordash.BaseFetcher
	raw   *labordash.RawTable
	err   error
	calls atomic.Int32
}

func newMockFetcher(name string, priority int, raw *labordash.RawTable, err error) *mockFetcher {
	return &mockFetcher{
		BaseFetcher: labordash.NewBaseFetcher(name, priority),
		raw:         raw,
		err:         err,
	}
}

func (f *mockFetcher) Fetch(ctx context.Context, desc *labordash.Descriptor) (*labordash.RawTable, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

func (f *mockFetcher) Calls() int { return int(f.calls.Load()) }

// fixtureCatalog serves every dataset from its CSV fixture, except those
// listed in down, whose only source fails.
func fixtureCatalog(t testing.TB, down ...string) *labordash.Catalog {
	t.Helper()
	failing := make(map[string]bool, len(down))
	for _, d := range down {
		failing[d] = true
	}

	catalog := labordash.NewCatalog()
	for dataset, body := range fixtures {
		desc := descriptorFor(t, dataset)
		var f labordash.Fetcher = newMockFetcher(dataset+"-fixture", 1, rawCSV(t, body), nil)
		if failing[dataset] {
			f = newMockFetcher(dataset+"-down", 1, nil,
				labordash.NewUnavailableError(dataset, dataset+"-down", "unreachable", nil))
		}
		catalog.Register(labordash.NewFallbackChain(desc,
			labordash.ChainWithAttempt(f, labordash.NormalizerFor(dataset)),
		))
	}
	return catalog
}

// countingLoader wraps a Loader and counts calls per dataset.
type countingLoader struct {
	next  labordash.Loader
	mu    sync.Mutex
	calls map[string]int
}

func newCountingLoader(next labordash.Loader) *countingLoader {
	return &countingLoader{next: next, calls: make(map[string]int)}
}

func (l *countingLoader) Load(ctx context.Context, name string) (*labordash.Result, error) {
	l.mu.Lock()
	l.calls[name]++
	l.mu.Unlock()
	return l.next.Load(ctx, name)
}

func (l *countingLoader) Calls(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[name]
}
