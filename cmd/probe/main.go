// Command probe loads the listing page once and prints what the extractor
// sees, without saving anything. Use it when tuning selectors.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go-jobboard-scraper/internal/app"
	"go-jobboard-scraper/internal/browser"
	"go-jobboard-scraper/internal/classify"
	"go-jobboard-scraper/internal/config"
	"go-jobboard-scraper/internal/extract"
	"go-jobboard-scraper/internal/skills"
	"go-jobboard-scraper/pkg/logging"

	"github.com/PuerkitoBio/goquery"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config.yaml")
	url := flag.String("url", "", "page to probe (default: the listing URL)")
	flag.Parse()

	fmt.Println("🔧 Loading config...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		fail("load config", err)
	}
	log := logging.New("development", cfg.LogLevel)
	defer log.Sync()

	target := *url
	if target == "" {
		target = cfg.Scraper.ListingURL()
	}

	cls, err := classify.New(cfg.Rules.Vocabulary)
	if err != nil {
		fail("build classifier", err)
	}
	norm := skills.New(cls, skills.Options{MaxSkills: cfg.Scraper.MaxSkills, CamelSplitThreshold: cfg.Scraper.CamelSplitThreshold})
	ex, err := extract.New(cls, cfg.Rules.Selectors, extract.Options{BaseURL: cfg.Scraper.BaseURL, Normalizer: norm})
	if err != nil {
		fail("build extractor", err)
	}

	if cfg.Browser.CookiesPath != "" {
		cookies, err := browser.LoadCookies(cfg.Browser.CookiesPath)
		if err != nil {
			fmt.Printf("⚠️ Could not load cookies: %v\n", err)
		} else {
			fmt.Printf("🍪 Loaded %d cookies\n", len(cookies))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	opts := app.BrowserOptions(cfg)
	opts.Pacing = browser.Pacing{}
	f, err := browser.Open(ctx, opts, log)
	if err != nil {
		fail("start browser", err)
	}
	defer f.Close()

	fmt.Printf("🔍 Navigating to %s...\n", target)
	html, err := f.FetchRendered(ctx, target)
	if err != nil {
		fail("fetch", err)
	}

	count, sig := ex.Probe(html)
	fmt.Printf("✅ %d cards, first: %q\n", count, sig)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		fail("parse", err)
	}
	for i, card := range ex.FindCards(doc) {
		job, ok := ex.ExtractCard(card)
		if !ok {
			fmt.Printf("  [%d] skipped (no title or company)\n", i+1)
			continue
		}
		fmt.Printf("  [%d] %s @ %s | %s | %s | %s | %v\n", i+1, job.Title, job.Company, job.Location, job.JobType, job.ExperienceRequired, job.Skills)
	}
	fmt.Println("✨ Probe complete!")
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "❌ %s: %v\n", step, err)
	os.Exit(1)
}
