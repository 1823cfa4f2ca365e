// Package app builds the scraper and its collaborators from a Config. Both
// binaries share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"go-jobboard-scraper/internal/browser"
	"go-jobboard-scraper/internal/classify"
	"go-jobboard-scraper/internal/config"
	"go-jobboard-scraper/internal/database"
	"go-jobboard-scraper/internal/extract"
	"go-jobboard-scraper/internal/pagination"
	"go-jobboard-scraper/internal/runlock"
	"go-jobboard-scraper/internal/scraper"
	"go-jobboard-scraper/internal/skills"
	"go-jobboard-scraper/internal/telegram"
	"go-jobboard-scraper/pkg/logging"

	"github.com/redis/go-redis/v9"
)

type App struct {
	Config       *config.Config
	Store        database.Store
	Orchestrator *scraper.Orchestrator
	Runner       *scraper.Runner

	redis *redis.Client
	log   *logging.Logger
}

// Build connects storage and the optional Redis lock and Telegram bot, and
// assembles the extraction pipeline. Telegram failures only warn; storage
// and Redis failures are fatal.
func Build(ctx context.Context, cfg *config.Config, log *logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}
	a := &App{Config: cfg, log: log}

	cls, err := classify.New(cfg.Rules.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	norm := skills.New(cls, skills.Options{
		MaxSkills:           cfg.Scraper.MaxSkills,
		CamelSplitThreshold: cfg.Scraper.CamelSplitThreshold,
	})
	ex, err := extract.New(cls, cfg.Rules.Selectors, extract.Options{
		BaseURL:             cfg.Scraper.BaseURL,
		MaxCardSkills:       cfg.Scraper.MaxCardSkills,
		MaxDetailSkills:     cfg.Scraper.MaxDetailSkills,
		ShortDescriptionLen: cfg.Scraper.ShortDescriptionLen,
		DefaultCurrency:     cfg.Scraper.DefaultCurrency,
		Normalizer:          norm,
	})
	if err != nil {
		return nil, fmt.Errorf("build extractor: %w", err)
	}

	a.Store, err = openStore(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	locker, err := a.openLocker(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	options := []scraper.Option{scraper.WithLogger(log)}
	if cfg.Telegram.Enabled() {
		bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
		if err != nil {
			log.Warn("⚠️ Telegram disabled", "error", err)
		} else {
			log.Info("🤖 Telegram Bot initialized")
			options = append(options, scraper.WithNotifier(bot))
		}
	}

	launcher := browser.NewLauncher(BrowserOptions(cfg), log)
	a.Orchestrator = scraper.New(launcher.Acquire, a.Store, ex, norm, scraper.Options{
		ListingURL: cfg.Scraper.ListingURL(),
		Pagination: pagination.Options{
			Selectors:      cfg.Rules.Selectors.Pagination,
			PollInterval:   cfg.Scraper.PollInterval,
			PollAttempts:   cfg.Scraper.PollAttempts,
			ReadyPredicate: cfg.Rules.Selectors.Detail.ReadyPredicateScript,
			ReadyTimeout:   cfg.Browser.ReadyTimeout,
		},
		DetailDelay: cfg.Scraper.DetailDelay,
	}, options...)
	a.Runner = scraper.NewRunner(a.Orchestrator, locker)
	return a, nil
}

// BrowserOptions maps the browser and rules config onto the fetcher.
func BrowserOptions(cfg *config.Config) browser.Options {
	return browser.Options{
		Launch: browser.LaunchOptions{
			Headless:  cfg.Browser.Headless,
			Install:   cfg.Browser.Install,
			UserAgent: cfg.Browser.UserAgent,
		},
		CookiesPath:    cfg.Browser.CookiesPath,
		NavTimeout:     cfg.Browser.NavTimeout,
		ReadyPredicate: cfg.Rules.Selectors.Detail.ReadyPredicateScript,
		ReadyTimeout:   cfg.Browser.ReadyTimeout,
		Pacing: browser.Pacing{
			MinDelay:   cfg.Browser.MinDelay,
			MaxDelay:   cfg.Browser.MaxDelay,
			Scroll:     cfg.Browser.Scroll,
			MouseMoves: cfg.Browser.MouseMoves,
		},
		ScreenshotDir: cfg.Browser.ScreenshotDir,
	}
}

// RefreshParams is what the refresh action and scheduled runs use.
func RefreshParams(cfg *config.Config) scraper.RunParams {
	return scraper.RunParams{
		MaxJobs:       cfg.Scraper.RefreshMaxJobs,
		MaxPages:      cfg.Scraper.RefreshMaxPages,
		ScrapeDetails: cfg.Scraper.RefreshScrapeDetails,
	}
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger) (database.Store, error) {
	if cfg.URL == "" {
		fs, err := database.OpenFileStore(cfg.StorePath, log)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		log.Info("💾 Using JSON file store", "path", cfg.StorePath)
		return fs, nil
	}

	repo, err := database.ConnectDB(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	log.Info("🐘 Connected to Postgres")
	return repo, nil
}

func (a *App) openLocker(ctx context.Context) (scraper.Locker, error) {
	if a.Config.Redis.URL == "" {
		return runlock.NewLocal(), nil
	}
	rdb, err := runlock.NewRedisClient(ctx, a.Config.Redis.URL)
	if err != nil {
		return nil, err
	}
	a.redis = rdb
	a.log.Info("🔒 Using Redis run lock")
	return runlock.NewRedisLocker(rdb, runlock.DefaultKey, a.Config.Redis.LockTTL, a.log), nil
}

func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	return errors.Join(errs...)
}
