package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-jobboard-scraper/internal/app"
	"go-jobboard-scraper/internal/config"
	"go-jobboard-scraper/internal/scraper"
	"go-jobboard-scraper/pkg/logging"
)

type options struct {
	configPath string
	params     scraper.RunParams
	timeout    time.Duration
}

func parseFlags(args []string) (options, error) {
	var (
		opts        options
		skipDetails bool
	)
	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", config.DefaultPath, "path to config.yaml")
	fs.IntVar(&opts.params.MaxJobs, "max-jobs", 50, "maximum jobs to collect (0 = no limit)")
	fs.IntVar(&opts.params.MaxPages, "max-pages", 5, "maximum listing pages to visit")
	fs.BoolVar(&skipDetails, "skip-details", false, "only scrape listing cards")
	fs.DurationVar(&opts.timeout, "timeout", 0, "overall run timeout (0 = none)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts.params.ScrapeDetails = !skipDetails
	return opts, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run returns the process exit code so deferred cleanup happens before exit.
func run(args []string, stdout io.Writer) int {
	opts, err := parseFlags(args)
	if err != nil {
		return 2
	}

	//load config
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logging.New("development", "info").Error("❌ Failed to load config", "error", err)
		return 1
	}
	log := logging.New(cfg.Env, cfg.LogLevel)
	defer log.Sync()

	if err := opts.params.Validate(); err != nil {
		log.Error("❌ Invalid flags", "error", err)
		return 2
	}

	ctx := context.Background()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("❌ Failed to initialize", "error", err)
		return 1
	}
	defer a.Close()

	res, err := a.Runner.Run(ctx, opts.params)
	if err != nil {
		log.Error("❌ Scrape did not start", "error", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)

	if !res.Success {
		return 1
	}
	return 0
}
