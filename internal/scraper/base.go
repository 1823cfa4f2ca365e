// Package scraper drives one scrape run: listing pages, card extraction,
// de-duplication, detail drill-down, merge and upsert.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-jobboard-scraper/internal/browser"
	"go-jobboard-scraper/internal/models"
)

const (
	MaxJobsLimit  = 1000
	MaxPagesLimit = 50
)

var ErrInvalidParams = errors.New("invalid run parameters")

// RunParams configures one run. MaxJobs 0 means no limit.
type RunParams struct {
	MaxJobs       int  `json:"max_jobs"`
	MaxPages      int  `json:"max_pages"`
	ScrapeDetails bool `json:"scrape_details"`
}

// DefaultRefreshParams is what a parameterless refresh runs with.
func DefaultRefreshParams() RunParams {
	return RunParams{MaxJobs: 50, MaxPages: 5, ScrapeDetails: true}
}

func (p RunParams) Validate() error {
	if p.MaxJobs < 0 || p.MaxJobs > MaxJobsLimit {
		return fmt.Errorf("%w: max_jobs must be between 0 and %d, got %d", ErrInvalidParams, MaxJobsLimit, p.MaxJobs)
	}
	if p.MaxPages < 1 || p.MaxPages > MaxPagesLimit {
		return fmt.Errorf("%w: max_pages must be between 1 and %d, got %d", ErrInvalidParams, MaxPagesLimit, p.MaxPages)
	}
	return nil
}

// RunResult is always returned, even when the run could not start.
type RunResult struct {
	Success      bool      `json:"success"`
	JobsScraped  int       `json:"jobs_scraped"`
	JobsSaved    int       `json:"jobs_saved"`
	JobsCreated  int       `json:"jobs_created"`
	PagesScraped int       `json:"pages_scraped"`
	Errors       []string  `json:"errors"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

func (r *RunResult) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Store is the keyed persistence the orchestrator writes through.
type Store interface {
	Upsert(ctx context.Context, key string, job models.JobPosting) (models.JobPosting, bool, error)
}

// Notifier hears about finished runs. created holds the postings stored for
// the first time.
type Notifier interface {
	NotifyRun(ctx context.Context, result RunResult, created []models.JobPosting) error
}

// FetcherFactory starts a browser session for one run.
type FetcherFactory func(ctx context.Context) (browser.Fetcher, error)
