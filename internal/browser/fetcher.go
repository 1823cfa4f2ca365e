// Package browser provides the rendered-page fetcher the scraper drives: a
// single playwright page behind a small interface.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-jobboard-scraper/pkg/logging"

	"github.com/playwright-community/playwright-go"
)

// ErrClosed is returned by a fetcher used after Close.
var ErrClosed = errors.New("fetcher closed")

// Fetcher is everything the scraper needs from a browser session.
type Fetcher interface {
	// FetchRendered navigates to url and returns the rendered HTML.
	FetchRendered(ctx context.Context, url string) (string, error)
	// ExecuteScript evaluates a JS expression or function in the page.
	ExecuteScript(ctx context.Context, js string) (any, error)
	// WaitForCondition polls a JS predicate until it is truthy. A timeout is
	// reported as false, not as an error.
	WaitForCondition(ctx context.Context, predicate string, timeout time.Duration) (bool, error)
	Close() error
}

type Options struct {
	Launch         LaunchOptions
	CookiesPath    string
	NavTimeout     time.Duration
	ReadyPredicate string
	ReadyTimeout   time.Duration
	Pacing         Pacing
	ScreenshotDir  string
}

// Launcher starts a fresh browser session per run.
type Launcher struct {
	opts Options
	log  *logging.Logger
}

func NewLauncher(opts Options, log *logging.Logger) *Launcher {
	if log == nil {
		log = logging.Nop()
	}
	return &Launcher{opts: opts, log: log}
}

// Acquire launches the browser, opens a context and a page.
func (l *Launcher) Acquire(ctx context.Context) (Fetcher, error) {
	return Open(ctx, l.opts, l.log)
}

// PageFetcher is a Fetcher over one playwright page. It is not safe for
// concurrent use; a run owns it exclusively.
type PageFetcher struct {
	pm     *PlaywrightManager
	bctx   playwright.BrowserContext
	page   playwright.Page
	opts   Options
	shots  *ScreenshotDebugger
	log    *logging.Logger
	closed bool
}

func Open(ctx context.Context, opts Options, log *logging.Logger) (*PageFetcher, error) {
	if log == nil {
		log = logging.Nop()
	}
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 30 * time.Second
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 10 * time.Second
	}

	cookies, err := LoadCookies(opts.CookiesPath)
	if err != nil {
		log.Warn("⚠️ Could not load cookies, continuing without", "error", err)
		cookies = nil
	}

	pm, err := NewPlaywright(ctx, opts.Launch, log)
	if err != nil {
		return nil, err
	}

	bctx, err := pm.NewContext(cookies, opts.Launch.UserAgent)
	if err != nil {
		_ = pm.Close()
		return nil, err
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = pm.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}

	log.Info("✅ Browser initialized successfully")
	return &PageFetcher{
		pm:    pm,
		bctx:  bctx,
		page:  page,
		opts:  opts,
		shots: NewScreenshotDebugger(opts.ScreenshotDir, log),
		log:   log,
	}, nil
}

func (f *PageFetcher) FetchRendered(ctx context.Context, url string) (string, error) {
	if f.closed {
		return "", ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, err := f.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(f.opts.NavTimeout.Milliseconds())),
	}); err != nil {
		_ = f.shots.CaptureAndLog(f.page, "navigation-failed", "Navigation failed: "+url)
		return "", fmt.Errorf("navigate to %s: %w", url, err)
	}

	if f.opts.ReadyPredicate != "" {
		ready, err := f.WaitForCondition(ctx, f.opts.ReadyPredicate, f.opts.ReadyTimeout)
		if err != nil {
			return "", err
		}
		if !ready {
			f.log.Debug("page not ready within timeout, using what rendered", "url", url)
		}
	}

	if err := f.opts.Pacing.Wait(ctx); err != nil {
		return "", err
	}
	if f.opts.Pacing.Scroll {
		if err := HumanScroll(ctx, f.page); err != nil {
			f.log.Debug("scroll failed", "error", err)
		}
	}
	if f.opts.Pacing.MouseMoves {
		if err := MouseJiggle(ctx, f.page); err != nil {
			f.log.Debug("mouse moves failed", "error", err)
		}
	}

	html, err := f.page.Content()
	if err != nil {
		return "", fmt.Errorf("read content of %s: %w", url, err)
	}
	return html, nil
}

func (f *PageFetcher) ExecuteScript(ctx context.Context, js string) (any, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := f.page.Evaluate(js)
	if err != nil {
		return nil, fmt.Errorf("evaluate script: %w", err)
	}
	return v, nil
}

func (f *PageFetcher) WaitForCondition(ctx context.Context, predicate string, timeout time.Duration) (bool, error) {
	if f.closed {
		return false, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return false, nil
	}

	_, err := f.page.WaitForFunction(predicate, nil, playwright.PageWaitForFunctionOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("wait for condition: %w", err)
	}
	return true, nil
}

// Close releases the page, the context and the browser process. It is safe
// to call more than once.
func (f *PageFetcher) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var errs []error
	if err := f.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close page: %w", err))
	}
	if err := f.bctx.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close context: %w", err))
	}
	if err := f.pm.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		f.log.Warn("⚠️ Browser did not close cleanly", "error", errors.Join(errs...))
		return errors.Join(errs...)
	}
	f.log.Info("🔒 Browser closed")
	return nil
}
