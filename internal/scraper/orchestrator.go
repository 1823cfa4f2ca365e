package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-jobboard-scraper/internal/browser"
	"go-jobboard-scraper/internal/dedup"
	"go-jobboard-scraper/internal/extract"
	"go-jobboard-scraper/internal/models"
	"go-jobboard-scraper/internal/pagination"
	"go-jobboard-scraper/pkg/logging"

	"github.com/PuerkitoBio/goquery"
)

// persistTimeout bounds saving and notifying once the run context is gone.
const persistTimeout = 5 * time.Minute

type Options struct {
	ListingURL string
	Pagination pagination.Options
	// pause between detail page fetches
	DetailDelay time.Duration
}

type Option func(*Orchestrator)

func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator runs scrapes sequentially over one exclusively owned browser
// session. A single Orchestrator must not run concurrently with itself;
// callers serialize runs (see runlock).
type Orchestrator struct {
	acquire    FetcherFactory
	store      Store
	ex         *extract.Extractor
	normalizer extract.SkillNormalizer
	opts       Options
	notifier   Notifier
	log        *logging.Logger
	now        func() time.Time
}

func New(acquire FetcherFactory, store Store, ex *extract.Extractor, normalizer extract.SkillNormalizer, opts Options, options ...Option) *Orchestrator {
	o := &Orchestrator{
		acquire:    acquire,
		store:      store,
		ex:         ex,
		normalizer: normalizer,
		opts:       opts,
		log:        logging.Nop(),
		now:        time.Now,
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

// Run never returns an error: every failure ends up in RunResult.Errors.
func (o *Orchestrator) Run(ctx context.Context, p RunParams) RunResult {
	res := RunResult{Errors: []string{}, StartedAt: o.now()}
	created := o.run(ctx, p, &res)
	res.FinishedAt = o.now()

	o.log.Info("🏁 Scrape run finished",
		"success", res.Success, "scraped", res.JobsScraped, "saved", res.JobsSaved, "created", res.JobsCreated,
		"pages", res.PagesScraped, "errors", len(res.Errors))

	if o.notifier != nil {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		if err := o.notifier.NotifyRun(notifyCtx, res, created); err != nil {
			o.log.Warn("⚠️ Failed to send run notification", "error", err)
		}
	}
	return res
}

func (o *Orchestrator) run(ctx context.Context, p RunParams, res *RunResult) []models.JobPosting {
	if err := p.Validate(); err != nil {
		res.addError("%v", err)
		return nil
	}

	o.log.Info("🚀 Starting scrape run", "url", o.opts.ListingURL, "max_jobs", p.MaxJobs, "max_pages", p.MaxPages, "details", p.ScrapeDetails)

	fetcher, err := o.acquire(ctx)
	if err != nil {
		o.log.Error("❌ Failed to start browser", "error", err)
		res.addError("start browser: %v", err)
		return nil
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			o.log.Warn("⚠️ Failed to close browser", "error", err)
		}
	}()

	jobs, err := o.collectListings(ctx, fetcher, p, res)
	if err != nil {
		res.addError("%v", err)
		return nil
	}
	res.JobsScraped = len(jobs)
	o.log.Info("📦 Listing pass finished", "jobs", len(jobs), "pages", res.PagesScraped)

	if p.ScrapeDetails {
		o.drillDetails(ctx, fetcher, jobs, res)
	}

	// collected postings are saved even when the run was interrupted
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	created := o.persist(saveCtx, jobs, res)
	res.Success = len(jobs) == 0 || res.JobsSaved > 0
	return created
}

// collectListings walks the listing pages and returns the unique cards. All
// listing pages are read before any detail page is opened, so navigating
// away never invalidates the paginated listing.
func (o *Orchestrator) collectListings(ctx context.Context, f browser.Fetcher, p RunParams, res *RunResult) ([]models.JobPosting, error) {
	html, err := f.FetchRendered(ctx, o.opts.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("load listing page: %w", err)
	}

	nav := pagination.New(f, o.ex.Probe, o.opts.Pagination, o.log)
	seen := dedup.NewTracker()
	var jobs []models.JobPosting

	for {
		res.PagesScraped++
		page := nav.Page()

		fresh, err := o.extractPage(html, page, seen, res)
		if err != nil {
			res.addError("page %d: %v", page, err)
		}
		o.log.Info("📋 Page scraped", "page", page, "new_jobs", len(fresh))

		for _, j := range fresh {
			if p.MaxJobs > 0 && len(jobs) >= p.MaxJobs {
				break
			}
			jobs = append(jobs, j)
		}

		switch {
		case p.MaxJobs > 0 && len(jobs) >= p.MaxJobs:
			o.log.Info("job limit reached", "max_jobs", p.MaxJobs)
			return jobs, nil
		case len(fresh) == 0:
			o.log.Info("no new jobs on page, stopping", "page", page)
			return jobs, nil
		case res.PagesScraped >= p.MaxPages:
			o.log.Info("page limit reached", "max_pages", p.MaxPages)
			return jobs, nil
		case ctx.Err() != nil:
			res.addError("run interrupted: %v", ctx.Err())
			return jobs, nil
		}

		step := nav.Next(ctx)
		if !step.Advanced {
			return jobs, nil
		}
		html = step.HTML
	}
}

// extractPage returns the cards on one page not seen earlier in the run.
// Cards without a title or company are skipped silently; a card whose
// extraction panics is recorded as an error and skipped.
func (o *Orchestrator) extractPage(html string, page int, seen *dedup.Tracker, res *RunResult) ([]models.JobPosting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	cards := o.ex.FindCards(doc)
	var fresh []models.JobPosting
	for i, card := range cards {
		job, ok, err := o.safeExtractCard(card)
		if err != nil {
			o.log.Warn("⚠️ Card extraction failed", "page", page, "card", i+1, "error", err)
			res.addError("page %d card %d: %v", page, i+1, err)
			continue
		}
		if !ok {
			o.log.Debug("card skipped, no title or company", "page", page, "card", i+1)
			continue
		}
		if !seen.Add(job.Title, job.Company) {
			o.log.Debug("duplicate card skipped", "title", job.Title, "company", job.Company)
			continue
		}
		fresh = append(fresh, job)
	}
	return fresh, nil
}

func (o *Orchestrator) safeExtractCard(card *goquery.Selection) (job models.JobPosting, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected card structure: %v", r)
		}
	}()
	job, ok = o.ex.ExtractCard(card)
	return job, ok, nil
}

func (o *Orchestrator) drillDetails(ctx context.Context, f browser.Fetcher, jobs []models.JobPosting, res *RunResult) {
	for i := range jobs {
		job := &jobs[i]
		if job.ViewDetailsLink == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			res.addError("details interrupted: %v", err)
			return
		}
		if i > 0 && o.opts.DetailDelay > 0 {
			if err := browser.RandomDelay(ctx, o.opts.DetailDelay, o.opts.DetailDelay*2); err != nil {
				res.addError("details interrupted: %v", err)
				return
			}
		}

		d, err := o.fetchDetail(ctx, f, job.ViewDetailsLink)
		if err != nil {
			o.log.Warn("⚠️ Detail page failed, keeping card fields", "title", job.Title, "url", job.ViewDetailsLink, "error", err)
			res.addError("details for %q (%s): %v", job.Title, job.ViewDetailsLink, err)
			continue
		}
		if d.Empty() {
			o.log.Debug("detail page had nothing to add", "url", job.ViewDetailsLink)
			continue
		}
		mergeDetail(job, d)
		o.log.Debug("details merged", "title", job.Title, "skills", len(job.Skills))
	}
}

func (o *Orchestrator) fetchDetail(ctx context.Context, f browser.Fetcher, url string) (d extract.Detail, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected detail structure: %v", r)
		}
	}()

	html, err := f.FetchRendered(ctx, url)
	if err != nil {
		return extract.Detail{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return extract.Detail{}, fmt.Errorf("parse detail page: %w", err)
	}
	return o.ex.ExtractDetail(doc), nil
}

// mergeDetail lays non-empty detail fields over the card. Title and company
// stay as on the card since they carry the posting's identity; skills are
// unioned. Keyword hints only replace card defaults.
func mergeDetail(job *models.JobPosting, d extract.Detail) {
	switch {
	case d.Location != "":
		job.Location = d.Location
	case d.LocationHint != "" && job.Location == models.NotSpecified:
		job.Location = d.LocationHint
	}
	switch {
	case d.JobType != "":
		job.JobType = d.JobType
	case d.JobTypeHint != "" && job.JobType == models.JobTypeFullTime:
		job.JobType = d.JobTypeHint
	}
	if d.Compensation != "" {
		job.CompensationText = d.Compensation
	}
	if d.FullDescription != "" {
		job.FullDescription = d.FullDescription
	}
	if d.ShortDescription != "" {
		job.ShortDescription = d.ShortDescription
	}
	if len(d.Skills) > 0 {
		job.Skills = append(append([]string{}, job.Skills...), d.Skills...)
	}
	job.DetailsScraped = true
}

func (o *Orchestrator) persist(ctx context.Context, jobs []models.JobPosting, res *RunResult) []models.JobPosting {
	var created []models.JobPosting
	for _, job := range jobs {
		if o.normalizer != nil {
			job.Skills = o.normalizer.Normalize(job.Skills)
		}
		if job.Skills == nil {
			job.Skills = []string{}
		}
		o.ex.ApplySalary(&job)
		job.ExternalID = dedup.ExternalID(job.Title, job.Company)

		saved, isNew, err := o.store.Upsert(ctx, job.ExternalID, job)
		if err != nil {
			o.log.Error("❌ Failed to save job", "title", job.Title, "company", job.Company, "error", err)
			res.addError("save %q at %q: %v", job.Title, job.Company, err)
			continue
		}
		res.JobsSaved++
		if isNew {
			res.JobsCreated++
			created = append(created, saved)
		}
	}
	o.log.Info("💾 Jobs saved", "saved", res.JobsSaved, "created", res.JobsCreated)
	return created
}
