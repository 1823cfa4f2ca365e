// Package api exposes scrape runs and the stored postings over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go-jobboard-scraper/internal/database"
	"go-jobboard-scraper/internal/models"
	"go-jobboard-scraper/internal/runlock"
	"go-jobboard-scraper/internal/scraper"
	"go-jobboard-scraper/pkg/logging"
	"go-jobboard-scraper/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Runner interface {
	Run(ctx context.Context, p scraper.RunParams) (scraper.RunResult, error)
	Last() (scraper.RunResult, bool)
}

type Handler struct {
	runner  Runner
	store   database.Store
	refresh scraper.RunParams
	log     *logging.Logger
}

func NewHandler(runner Runner, store database.Store, refresh scraper.RunParams, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.Nop()
	}
	return &Handler{runner: runner, store: store, refresh: refresh, log: log}
}

// NewRouter builds the gin engine with recovery, request logging and all
// routes.
func NewRouter(h *Handler, log *logging.Logger) *gin.Engine {
	if log == nil {
		log = logging.Nop()
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "duration", time.Since(start))
	})

	r.GET("/", h.Health)

	jobs := r.Group("/api/jobs")
	{
		jobs.POST("/scrape", h.Scrape)
		jobs.POST("/refresh", h.Refresh)
		jobs.GET("/stats", h.Stats)
		jobs.GET("", h.List)
		jobs.DELETE("", h.Clear)
		jobs.GET("/:external_id", h.Get)
	}
	return r
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Job board scraper API is running!",
		"status":  "healthy",
	})
}

// scrapeRequest fields are pointers so omitted ones take the refresh
// defaults while explicit zeros are kept.
type scrapeRequest struct {
	MaxJobs       *int  `json:"max_jobs"`
	MaxPages      *int  `json:"max_pages"`
	ScrapeDetails *bool `json:"scrape_details"`
}

func (h *Handler) Scrape(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	p := h.refresh
	if req.MaxJobs != nil {
		p.MaxJobs = *req.MaxJobs
	}
	if req.MaxPages != nil {
		p.MaxPages = *req.MaxPages
	}
	if req.ScrapeDetails != nil {
		p.ScrapeDetails = *req.ScrapeDetails
	}
	h.run(c, p)
}

func (h *Handler) Refresh(c *gin.Context) {
	h.run(c, h.refresh)
}

// run answers with the RunResult itself: 200 on success, 503 when the run
// failed as a whole. A client hanging up does not stop the run.
func (h *Handler) run(c *gin.Context, p scraper.RunParams) {
	res, err := h.runner.Run(context.WithoutCancel(c.Request.Context()), p)
	switch {
	case errors.Is(err, scraper.ErrInvalidParams):
		response.BadRequest(c, err.Error())
		return
	case errors.Is(err, runlock.ErrBusy):
		response.Conflict(c, err.Error())
		return
	case err != nil:
		h.log.Error("❌ Scrape request failed", "error", err)
		response.InternalError(c, "could not start scrape run")
		return
	}

	status := http.StatusOK
	if !res.Success {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, res)
}

type statsResponse struct {
	models.Stats
	LastRun *scraper.RunResult `json:"last_run"`
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("❌ Failed to read stats", "error", err)
		response.InternalError(c, "")
		return
	}
	out := statsResponse{Stats: stats}
	if last, ok := h.runner.Last(); ok {
		out.LastRun = &last
	}
	response.OK(c, out)
}

func (h *Handler) Clear(c *gin.Context) {
	n, err := h.store.DeleteAll(c.Request.Context())
	if err != nil {
		h.log.Error("❌ Failed to clear jobs", "error", err)
		response.InternalError(c, "")
		return
	}
	h.log.Info("🗑️ Jobs cleared", "deleted", n)
	response.OK(c, gin.H{"deleted": n})
}

type listQuery struct {
	JobType    string `form:"job_type"`
	Location   string `form:"location"`
	Experience string `form:"experience"`
	Search     string `form:"search"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}

func (q listQuery) filter() (models.JobFilter, error) {
	f := models.JobFilter{
		Location:   q.Location,
		Experience: q.Experience,
		Search:     q.Search,
	}
	for _, raw := range strings.Split(q.JobType, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		jt, ok := models.ParseJobType(raw)
		if !ok {
			return f, errors.New("unknown job_type: " + strings.TrimSpace(raw))
		}
		f.JobTypes = append(f.JobTypes, jt)
	}
	if q.Page < 1 {
		return f, errors.New("page must be at least 1")
	}
	if q.PageSize < 1 || q.PageSize > maxPageSize {
		return f, errors.New("page_size must be between 1 and 100")
	}
	f.Limit = q.PageSize
	f.Offset = (q.Page - 1) * q.PageSize
	return f, nil
}

func (h *Handler) List(c *gin.Context) {
	q := listQuery{Page: 1, PageSize: defaultPageSize}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}
	f, err := q.filter()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	total, err := h.store.Count(ctx, f)
	if err != nil {
		h.log.Error("❌ Failed to count jobs", "error", err)
		response.InternalError(c, "")
		return
	}
	jobs, err := h.store.List(ctx, f)
	if err != nil {
		h.log.Error("❌ Failed to list jobs", "error", err)
		response.InternalError(c, "")
		return
	}

	response.OKWithMeta(c, jobs, &response.Meta{
		Page:     q.Page,
		PageSize: q.PageSize,
		Total:    total,
		HasNext:  f.Offset+len(jobs) < total,
	})
}

func (h *Handler) Get(c *gin.Context) {
	job, err := h.store.Get(c.Request.Context(), c.Param("external_id"))
	if errors.Is(err, database.ErrNotFound) {
		response.NotFound(c, "job not found")
		return
	}
	if err != nil {
		h.log.Error("❌ Failed to get job", "error", err)
		response.InternalError(c, "")
		return
	}
	response.OK(c, job)
}
