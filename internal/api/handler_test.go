package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go-jobboard-scraper/internal/database"
	"go-jobboard-scraper/internal/models"
	"go-jobboard-scraper/internal/runlock"
	"go-jobboard-scraper/internal/scraper"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	got    []scraper.RunParams
	result scraper.RunResult
	err    error
	last   *scraper.RunResult
	ctxErr error
}

func (f *fakeRunner) Run(ctx context.Context, p scraper.RunParams) (scraper.RunResult, error) {
	f.ctxErr = ctx.Err()
	if err := p.Validate(); err != nil {
		return scraper.RunResult{}, err
	}
	if f.err != nil {
		return scraper.RunResult{}, f.err
	}
	f.got = append(f.got, p)
	return f.result, nil
}

func (f *fakeRunner) Last() (scraper.RunResult, bool) {
	if f.last == nil {
		return scraper.RunResult{}, false
	}
	return *f.last, true
}

func setup(t *testing.T, runner *fakeRunner) (*gin.Engine, *database.FileStore) {
	t.Helper()
	store, err := database.OpenFileStore(filepath.Join(t.TempDir(), "jobs.json"), nil)
	require.NoError(t, err)
	h := NewHandler(runner, store, scraper.DefaultRefreshParams(), nil)
	return NewRouter(h, nil), store
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seed(t *testing.T, store *database.FileStore) {
	t.Helper()
	for i, spec := range []struct {
		title, company, location string
		jt                       models.JobType
	}{
		{"Backend Engineer", "Acme Labs", "Remote", models.JobTypeFullTime},
		{"Data Analyst Intern", "Globex", "Pune", models.JobTypeInternship},
		{"Frontend Developer", "Acme Labs", "Remote", models.JobTypeContract},
	} {
		j := models.NewJobPosting(spec.title, spec.company)
		j.Location = spec.location
		j.JobType = spec.jt
		_, _, err := store.Upsert(context.Background(), string(rune('a'+i)), j)
		require.NoError(t, err)
	}
}

func TestScrape(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		result scraper.RunResult
		status int
		params scraper.RunParams
	}{
		{
			name:   "explicit params",
			body:   `{"max_jobs": 10, "max_pages": 2, "scrape_details": false}`,
			result: scraper.RunResult{Success: true, JobsScraped: 10, JobsSaved: 10, PagesScraped: 2, Errors: []string{}},
			status: http.StatusOK,
			params: scraper.RunParams{MaxJobs: 10, MaxPages: 2},
		},
		{
			name:   "omitted fields take defaults",
			body:   `{"max_pages": 1}`,
			result: scraper.RunResult{Success: true, Errors: []string{}},
			status: http.StatusOK,
			params: scraper.RunParams{MaxJobs: 50, MaxPages: 1, ScrapeDetails: true},
		},
		{
			name:   "empty body",
			body:   "",
			result: scraper.RunResult{Success: true, Errors: []string{}},
			status: http.StatusOK,
			params: scraper.DefaultRefreshParams(),
		},
		{
			name:   "failed run",
			body:   `{"max_jobs": 0, "max_pages": 3}`,
			result: scraper.RunResult{Errors: []string{"start browser: executable not found"}},
			status: http.StatusServiceUnavailable,
			params: scraper.RunParams{MaxJobs: 0, MaxPages: 3, ScrapeDetails: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{result: tt.result}
			r, _ := setup(t, runner)

			w := do(r, http.MethodPost, "/api/jobs/scrape", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			require.Len(t, runner.got, 1)
			assert.Equal(t, tt.params, runner.got[0])

			var got scraper.RunResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.result.Success, got.Success)
			assert.Equal(t, tt.result.Errors, got.Errors)
		})
	}
}

func TestScrape_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"max_jobs too high", `{"max_jobs": 1001, "max_pages": 1}`, nil, http.StatusBadRequest},
		{"max_pages zero", `{"max_pages": 0}`, nil, http.StatusBadRequest},
		{"max_pages too high", `{"max_pages": 51}`, nil, http.StatusBadRequest},
		{"negative jobs", `{"max_jobs": -1}`, nil, http.StatusBadRequest},
		{"malformed json", `{"max_jobs": "ten"}`, nil, http.StatusBadRequest},
		{"run in progress", `{}`, runlock.ErrBusy, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{err: tt.err}
			r, _ := setup(t, runner)

			w := do(r, http.MethodPost, "/api/jobs/scrape", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Empty(t, runner.got)
		})
	}
}

func TestRefresh_UsesFixedParams(t *testing.T) {
	runner := &fakeRunner{result: scraper.RunResult{Success: true, Errors: []string{}}}
	r, _ := setup(t, runner)

	w := do(r, http.MethodPost, "/api/jobs/refresh", `{"max_jobs": 1}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, runner.got, 1)
	assert.Equal(t, scraper.DefaultRefreshParams(), runner.got[0])
}

func TestScrape_ClientHangUpDoesNotCancelRun(t *testing.T) {
	runner := &fakeRunner{result: scraper.RunResult{Success: true, Errors: []string{}}}
	r, _ := setup(t, runner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/jobs/scrape", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Len(t, runner.got, 1)
	assert.NoError(t, runner.ctxErr)
}

func TestStatsAndClear(t *testing.T) {
	runner := &fakeRunner{last: &scraper.RunResult{Success: true, JobsSaved: 3, Errors: []string{}}}
	r, store := setup(t, runner)
	seed(t, store)

	w := do(r, http.MethodGet, "/api/jobs/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		Success bool `json:"success"`
		Data    struct {
			Total     int            `json:"total"`
			ByJobType map[string]int `json:"by_job_type"`
			LastRun   *struct {
				JobsSaved int `json:"jobs_saved"`
			} `json:"last_run"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.True(t, stats.Success)
	assert.Equal(t, 3, stats.Data.Total)
	assert.Equal(t, 1, stats.Data.ByJobType["INTERNSHIP"])
	require.NotNil(t, stats.Data.LastRun)
	assert.Equal(t, 3, stats.Data.LastRun.JobsSaved)

	w = do(r, http.MethodDelete, "/api/jobs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true, "data": {"deleted": 3}}`, w.Body.String())

	n, err := store.Count(context.Background(), models.JobFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestList(t *testing.T) {
	r, store := setup(t, &fakeRunner{})
	seed(t, store)

	type listBody struct {
		Data []models.JobPosting `json:"data"`
		Meta struct {
			Page     int  `json:"page"`
			PageSize int  `json:"page_size"`
			Total    int  `json:"total"`
			HasNext  bool `json:"has_next"`
		} `json:"meta"`
	}

	tests := []struct {
		name    string
		query   string
		total   int
		count   int
		hasNext bool
	}{
		{"all", "", 3, 3, false},
		{"job types", "?job_type=full_time,contract", 2, 2, false},
		{"location", "?location=remote", 2, 2, false},
		{"search", "?search=globex", 1, 1, false},
		{"paged", "?page=1&page_size=2", 3, 2, true},
		{"last page", "?page=2&page_size=2", 3, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, "/api/jobs"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			var body listBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.total, body.Meta.Total)
			assert.Len(t, body.Data, tt.count)
			assert.Equal(t, tt.hasNext, body.Meta.HasNext)
		})
	}

	for _, q := range []string{"?job_type=remote", "?page=0", "?page_size=500", "?page=abc"} {
		w := do(r, http.MethodGet, "/api/jobs"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestGetAndHealth(t *testing.T) {
	r, store := setup(t, &fakeRunner{})
	seed(t, store)

	w := do(r, http.MethodGet, "/api/jobs/b", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Data Analyst Intern")

	w = do(r, http.MethodGet, "/api/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
