package browser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	data := `[
  {"name": "session", "value": "abc", "domain": ".devsunite.com", "path": "/", "expires": 1893456000, "httpOnly": true, "secure": true, "sameSite": "Lax"},
  {"name": "pref", "value": "dark", "domain": "devsunite.com", "sameSite": "no_restriction"},
  {"name": "", "value": "orphan", "domain": "devsunite.com"}
]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cookies, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2, "nameless cookies are dropped")

	c := cookies[0]
	assert.Equal(t, "session", c.Name)
	assert.Equal(t, ".devsunite.com", *c.Domain)
	assert.Equal(t, float64(1893456000), *c.Expires)
	assert.True(t, *c.HttpOnly)
	assert.True(t, *c.Secure)
	assert.Equal(t, playwright.SameSiteAttributeLax, c.SameSite)

	c = cookies[1]
	assert.Equal(t, "/", *c.Path)
	assert.Nil(t, c.Expires)
	assert.Nil(t, c.HttpOnly)
	assert.Equal(t, playwright.SameSiteAttributeNone, c.SameSite)
}

func TestLoadCookies_Errors(t *testing.T) {
	cookies, err := LoadCookies("")
	assert.NoError(t, err)
	assert.Nil(t, cookies)

	_, err = LoadCookies(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = LoadCookies(bad)
	assert.Error(t, err)
}

func TestRandomDelay(t *testing.T) {
	start := time.Now()
	require.NoError(t, RandomDelay(context.Background(), 10*time.Millisecond, 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	assert.NoError(t, Pacing{}.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, RandomDelay(ctx, time.Hour, 2*time.Hour), context.Canceled)
}

func TestScreenshotDebugger_Path(t *testing.T) {
	dir := t.TempDir()
	s := NewScreenshotDebugger(dir, nil)

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, filepath.Join(dir, "listing-page-2_2026-03-14_09-26-53.png"), s.Path("listing page/2", at))

	// disabled debugger is a no-op
	assert.NoError(t, NewScreenshotDebugger("", nil).CaptureAndLog(nil, "x", "y"))
}

const fixtureListing = `<!doctype html><html><head><title>Jobs</title></head><body><main>
<div class="group relative w-full"><h3>Platform Engineer</h3></div>
<script>setTimeout(() => document.body.dataset.loaded = "yes", 50)</script>
</main></body></html>`

// TestPageFetcher_Route drives a real chromium against a routed fixture. It
// needs the playwright driver installed and is skipped in -short mode.
func TestPageFetcher_Route(t *testing.T) {
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}

	ctx := context.Background()
	f, err := Open(ctx, Options{
		Launch:         LaunchOptions{Headless: true},
		ReadyPredicate: "() => !!document.querySelector('main')",
		ReadyTimeout:   5 * time.Second,
	}, nil)
	if err != nil {
		t.Skipf("playwright unavailable: %v", err)
	}
	defer f.Close()

	require.NoError(t, f.page.Route("**/*", func(route playwright.Route) {
		_ = route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(200),
			ContentType: playwright.String("text/html"),
			Body:        fixtureListing,
		})
	}))

	html, err := f.FetchRendered(ctx, "https://devsunite.com/jobs")
	require.NoError(t, err)
	assert.True(t, strings.Contains(html, "Platform Engineer"))

	title, err := f.ExecuteScript(ctx, "() => document.title")
	require.NoError(t, err)
	assert.Equal(t, "Jobs", title)

	ok, err := f.WaitForCondition(ctx, "() => document.body.dataset.loaded === 'yes'", 2*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.WaitForCondition(ctx, "() => false", 200*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "timeouts are reported as false")

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	_, err = f.FetchRendered(ctx, "https://devsunite.com/jobs")
	assert.ErrorIs(t, err, ErrClosed)
}

type recordedMouse struct {
	points [][2]float64
	fail   error
}

func (m *recordedMouse) Move(x, y float64, _ ...playwright.MouseMoveOptions) error {
	if m.fail != nil {
		return m.fail
	}
	m.points = append(m.points, [2]float64{x, y})
	return nil
}

func TestJiggle(t *testing.T) {
	t.Run("moves stay inside the viewport", func(t *testing.T) {
		m := &recordedMouse{}
		require.NoError(t, jiggle(context.Background(), m, 40, 30, 20, 0, 0))
		require.Len(t, m.points, 20)
		for _, p := range m.points {
			assert.True(t, p[0] >= 0 && p[0] < 40, "x=%v", p[0])
			assert.True(t, p[1] >= 0 && p[1] < 30, "y=%v", p[1])
		}
	})

	t.Run("empty viewport does nothing", func(t *testing.T) {
		m := &recordedMouse{}
		require.NoError(t, jiggle(context.Background(), m, 0, 30, 3, 0, 0))
		assert.Empty(t, m.points)
	})

	t.Run("cancelled context stops after the first move", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m := &recordedMouse{}
		assert.ErrorIs(t, jiggle(ctx, m, 40, 30, 3, time.Millisecond, 2*time.Millisecond), context.Canceled)
		assert.Len(t, m.points, 1)
	})

	t.Run("move errors are returned", func(t *testing.T) {
		m := &recordedMouse{fail: assert.AnError}
		assert.ErrorIs(t, jiggle(context.Background(), m, 40, 30, 3, 0, 0), assert.AnError)
	})
}
