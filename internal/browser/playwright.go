package browser

import (
	"context"
	"fmt"

	"go-jobboard-scraper/pkg/logging"

	"github.com/playwright-community/playwright-go"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// hides the most common automation fingerprints before any page script runs
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
window.chrome = { runtime: {} };
`

type LaunchOptions struct {
	Headless bool
	// install the chromium driver on first use
	Install   bool
	UserAgent string
}

// PlaywrightManager owns the playwright driver and one browser process.
type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	log     *logging.Logger
}

func NewPlaywright(ctx context.Context, opts LaunchOptions, log *logging.Logger) (*PlaywrightManager, error) {
	if log == nil {
		log = logging.Nop()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("install playwright driver: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--no-sandbox",
			"--disable-dev-shm-usage",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	log.Info("🌐 Browser launched", "headless", opts.Headless)
	return &PlaywrightManager{pw: pw, browser: b, log: log}, nil
}

// NewContext opens an isolated browser context with the stealth script and
// the given cookies installed.
func (pm *PlaywrightManager) NewContext(cookies []playwright.OptionalCookie, userAgent string) (playwright.BrowserContext, error) {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	bctx, err := pm.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
		Viewport:  &playwright.Size{Width: 1366, Height: 900},
		Locale:    playwright.String("en-US"),
	})
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}

	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("add stealth script: %w", err)
	}

	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			_ = bctx.Close()
			return nil, fmt.Errorf("add cookies: %w", err)
		}
		pm.log.Info("🍪 Cookies loaded", "count", len(cookies))
	}
	return bctx, nil
}

// Close stops the browser and the driver. Both are attempted even if the
// first fails.
func (pm *PlaywrightManager) Close() error {
	var firstErr error
	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			firstErr = fmt.Errorf("close browser: %w", err)
		}
	}
	if pm.pw != nil {
		if err := pm.pw.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop playwright: %w", err)
		}
	}
	return firstErr
}
