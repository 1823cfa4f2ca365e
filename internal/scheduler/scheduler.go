// Package scheduler wires up the cron job that periodically refreshes the
// stored postings.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"go-jobboard-scraper/internal/runlock"
	"go-jobboard-scraper/internal/scraper"
	"go-jobboard-scraper/pkg/logging"

	"github.com/robfig/cron/v3"
)

type Runner interface {
	Run(ctx context.Context, p scraper.RunParams) (scraper.RunResult, error)
}

// Scheduler wraps robfig/cron and fires one refresh per tick.
type Scheduler struct {
	cron   *cron.Cron
	spec   string // e.g. "@every 6h"
	params scraper.RunParams
	runner Runner
	log    *logging.Logger
}

func New(spec string, params scraper.RunParams, runner Runner, log *logging.Logger) *Scheduler {
	if log == nil {
		log = logging.Nop()
	}
	cl := cronLogger{log: log}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		spec:   spec,
		params: params,
		runner: runner,
		log:    log,
	}
}

// Start registers the job and starts the cron loop. ctx is handed to every
// run; canceling it interrupts an in-flight run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc(%q): %w", s.spec, err)
	}
	s.cron.Start()
	s.log.Info("⏰ Scheduler started", "spec", s.spec)
	return nil
}

// Stop stops new ticks and waits for a running one to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("⚠️ Scheduler stop timed out, run still in flight")
	}
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	s.log.Info("🔄 Scheduled refresh started", "max_jobs", s.params.MaxJobs, "max_pages", s.params.MaxPages)
	res, err := s.runner.Run(ctx, s.params)
	switch {
	case errors.Is(err, runlock.ErrBusy):
		s.log.Info("scheduled refresh skipped, a run is already active")
	case err != nil:
		s.log.Error("❌ Scheduled refresh failed", "error", err)
	default:
		s.log.Info("✅ Scheduled refresh finished", "success", res.Success, "saved", res.JobsSaved, "created", res.JobsCreated)
	}
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	log *logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
