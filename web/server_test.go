package web_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulllvoid/labordash"
	"github.com/nulllvoid/labordash/web"
)

const nationalCSV = `OCC_CODE,OCC_TITLE,O_GROUP,TOT_EMP,JOBS_1000,A_MEAN,A_PCT10,A_PCT25,A_MEDIAN,A_PCT75,A_PCT90
00-0000,All Occupations,total,150000000,1000,60000,20000,30000,50000,75000,110000
15-1252,Software Developers,detailed,1600000,10.0,50000,20000,30000,45000,70000,90000
29-1141,Registered Nurses,detailed,3200000,21.3,90000,60000,70000,85000,100000,130000
`

const stateCSV = `AREA_TITLE,AREA_TYPE,OCC_CODE,OCC_TITLE,TOT_EMP,LOC_QUOTIENT,A_MEDIAN
California,2,15-1252,Software Developers,400000,2.05,170000
Washington,2,15-1252,Software Developers,100000,2.6,165000
`

const msaCSV = `AREA_TITLE,AREA_TYPE,OCC_CODE,OCC_TITLE,TOT_EMP,LOC_Q,A_MEDIAN
"Seattle-Tacoma-Bellevue, WA",4,15-1252,Software Developers,95000,3.1,180000
`

const natsectorCSV = `OCC_CODE,OCC_TITLE,NAICS_TITLE,TOT_EMP,PCT_TOTAL
15-1252,Software Developers,Sector: Information,300000,18.4
`

type fixture struct {
	dash     *labordash.Dashboard
	server   *httptest.Server
	client   *http.Client
	counters *labordash.Counters
}

// newFixture serves every dataset from files behind a mirror that answers 404,
// with natsector fronted by an HTTP source that answers after the client
// timeout. withSectorFile false leaves the timed-out source as the only one.
func newFixture(t *testing.T, withSectorFile bool) *fixture {
	t.Helper()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(slow.Close)

	mirror := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(mirror.Close)

	dir := t.TempDir()
	for name, body := range map[string]string{
		"national_M2024_dl.csv":  nationalCSV,
		"state_M2024_dl.csv":     stateCSV,
		"MSA_M2024_dl.csv":       msaCSV,
		"natsector_M2024_dl.csv": natsectorCSV,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	cfg := labordash.DefaultConfig()
	cfg.DataDir = dir
	cfg.FallbackDir = ""
	cfg.MirrorURL = mirror.URL
	cfg.HTTP.Timeout = 50 * time.Millisecond
	sources := []labordash.SourceConfig{{
		Name: "natsector-api", Kind: "http", Format: "csv", Location: slow.URL, Priority: 1,
	}}
	if withSectorFile {
		sources = append(sources, cfg.Datasets[labordash.DatasetNatSector]...)
	}
	cfg.Datasets[labordash.DatasetNatSector] = sources

	counters := labordash.NewCounters()
	catalog, err := labordash.BuildCatalog(cfg, nil, counters)
	require.NoError(t, err)
	dash := labordash.NewDashboard(cfg, catalog, labordash.DashboardWithMetrics(counters))

	srv := httptest.NewServer(web.NewServer(dash, web.WithStats(counters)))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &fixture{
		dash:     dash,
		server:   srv,
		counters: counters,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := f.client.Get(f.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_Index(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	resp, body := f.get(t, "/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "Largest occupations by employment")
	assert.Contains(t, body, "Registered Nurses")
	assert.Contains(t, body, "$50,000")
	assert.Contains(t, body, `<option value="15-1252">Software Developers (15-1252)</option>`)
	assert.NotContains(t, body, "Data unavailable")

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "labordash_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
}

func TestServer_OccupationSnapshot(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	resp, body := f.get(t, "/occupation/151252")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Software Developers")
	assert.Contains(t, body, "Median annual wage (P50)")
	assert.Contains(t, body, "$45,000")
	assert.Contains(t, body, "$20,000")
	assert.Contains(t, body, "$90,000")
	assert.Contains(t, body, "Highest paying states")
	assert.Contains(t, body, "California")
	assert.Contains(t, body, "Information")
	assert.Contains(t, body, "18.4%")
}

func TestServer_IndustryMixPlaceholderWhenSourceTimesOut(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	resp, body := f.get(t, "/occupation/15-1252")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Data unavailable for: natsector")
	assert.Contains(t, body, `id="industry_mix"`)
	assert.Contains(t, body, "No data available")
	assert.Contains(t, body, "$45,000")

	snap := f.counters.Snapshot()
	assert.Equal(t, 1, snap.Degraded[labordash.DatasetNatSector])
}

func TestServer_IndustryMixFallsBackToFile(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	resp, body := f.get(t, "/occupation/15-1252")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "Data unavailable")
	assert.Contains(t, body, "Source: natsector-file")
}

func TestServer_OccupationErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)

	resp, body := f.get(t, "/occupation/software")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "occupation")

	resp, _ = f.get(t, "/occupation/15-1252?level=county")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.get(t, "/occupation/99-9999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_OccupationQueryRedirect(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	resp, _ := f.get(t, "/occupation?soc=151252&level=msa")

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/occupation/15-1252?level=msa", resp.Header.Get("Location"))
}

func TestServer_Refresh(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.get(t, "/")

	sessions := f.dash.Sessions()
	require.Equal(t, 1, sessions.Len())

	resp, err := f.client.PostForm(f.server.URL+"/refresh", url.Values{"return": {"/occupation/15-1252"}})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/occupation/15-1252", resp.Header.Get("Location"))
	assert.Equal(t, 1, sessions.Len())

	for _, target := range []string{
		"//evil.example",
		"/\\evil.example",
		"/\t/evil.example",
		"/x\\..\\evil",
		"https://evil.example/",
		"evil.example",
	} {
		resp, err = f.client.PostForm(f.server.URL+"/refresh", url.Values{"return": {target}})
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, target)
		assert.Equal(t, "/", resp.Header.Get("Location"), target)
	}
}

func TestServer_Industry(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)

	resp, body := f.get(t, "/industry")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<option value="Information"`)

	resp, body = f.get(t, "/industry?name=Information")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Largest occupations in Information")
	assert.Contains(t, body, "Software Developers")
}

func TestServer_OccupationAPI(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	resp, body := f.get(t, "/api/occupation/15-1252")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var page struct {
		Title    string `json:"title"`
		Snapshot struct {
			Code   string              `json:"code"`
			Fields map[string]*float64 `json:"fields"`
		} `json:"snapshot"`
		Views []struct {
			Name     string           `json:"name"`
			Degraded bool             `json:"degraded"`
			Empty    bool             `json:"empty"`
			Rows     []map[string]any `json:"rows"`
		} `json:"views"`
		Unavailable []string `json:"unavailable"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &page))

	assert.Equal(t, "Software Developers", page.Title)
	require.NotNil(t, page.Snapshot.Fields["Median annual wage (P50)"])
	assert.Equal(t, 45000.0, *page.Snapshot.Fields["Median annual wage (P50)"])
	assert.Equal(t, []string{labordash.DatasetNatSector}, page.Unavailable)

	byName := make(map[string]int)
	for i, v := range page.Views {
		byName[v.Name] = i
	}
	mix := page.Views[byName[labordash.ViewIndustryMix]]
	assert.True(t, mix.Empty)
	assert.True(t, mix.Degraded)

	top := page.Views[byName[labordash.ViewTopGeographies]]
	require.Len(t, top.Rows, 2)
	assert.Equal(t, "California", top.Rows[0][labordash.ColAreaTitle])
	assert.Equal(t, 170000.0, top.Rows[0][labordash.ColAMedian])
}

func TestServer_OccupationAPIError(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	resp, body := f.get(t, "/api/occupation/bogus")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, `"error"`)
}

func TestServer_StatsAndHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.get(t, "/")

	resp, body := f.get(t, "/api/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats labordash.StatsSnapshot
	require.NoError(t, json.Unmarshal([]byte(body), &stats))
	require.NotEmpty(t, stats.Sources)
	require.Len(t, stats.Sources, 2)
	assert.Equal(t, "national-file", stats.Sources[0].Source)
	assert.Equal(t, 1, stats.Sources[0].Wins)
	assert.Equal(t, "national-http", stats.Sources[1].Source)
	assert.Equal(t, 1, stats.Sources[1].Failures)

	resp, body = f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestServer_ListenAndServe(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	srv := web.NewServer(f.dash)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
