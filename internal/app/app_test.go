package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go-jobboard-scraper/internal/config"
	"go-jobboard-scraper/internal/database"
	"go-jobboard-scraper/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_FileStoreAndLocalLock(t *testing.T) {
	cfg := config.Default()
	cfg.Database.StorePath = filepath.Join(t.TempDir(), "jobs.json")

	a, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	_, ok := a.Store.(*database.FileStore)
	assert.True(t, ok)
	require.NotNil(t, a.Runner)

	// invalid params are rejected before a browser is launched
	_, err = a.Runner.Run(context.Background(), scraper.RunParams{MaxPages: 0})
	assert.ErrorIs(t, err, scraper.ErrInvalidParams)
}

func TestBuild_BadSelector(t *testing.T) {
	cfg := config.Default()
	cfg.Database.StorePath = filepath.Join(t.TempDir(), "jobs.json")
	cfg.Rules.Selectors.Cards = []string{"div[broken"}

	_, err := Build(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestBrowserOptionsAndRefreshParams(t *testing.T) {
	cfg := config.Default()
	cfg.Browser.Headless = false
	cfg.Browser.MinDelay = time.Second
	cfg.Browser.MouseMoves = false
	cfg.Scraper.RefreshMaxJobs = 20

	opts := BrowserOptions(cfg)
	assert.False(t, opts.Launch.Headless)
	assert.Equal(t, time.Second, opts.Pacing.MinDelay)
	assert.True(t, opts.Pacing.Scroll)
	assert.False(t, opts.Pacing.MouseMoves)
	assert.Equal(t, cfg.Rules.Selectors.Detail.ReadyPredicateScript, opts.ReadyPredicate)

	assert.Equal(t, scraper.RunParams{MaxJobs: 20, MaxPages: 5, ScrapeDetails: true}, RefreshParams(cfg))
}
