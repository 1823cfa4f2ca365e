package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"go-jobboard-scraper/pkg/logging"

	"github.com/playwright-community/playwright-go"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// ScreenshotDebugger saves full-page screenshots when a page fails to load.
// An empty output directory disables it.
type ScreenshotDebugger struct {
	outputDir string
	log       *logging.Logger
}

func NewScreenshotDebugger(dir string, log *logging.Logger) *ScreenshotDebugger {
	if log == nil {
		log = logging.Nop()
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn("⚠️ Failed to create screenshot directory, screenshots disabled", "dir", dir, "error", err)
			dir = ""
		}
	}
	return &ScreenshotDebugger{outputDir: dir, log: log}
}

// Path returns the file a capture named name would be written to at time t.
func (s *ScreenshotDebugger) Path(name string, t time.Time) string {
	safe := unsafeNameChars.ReplaceAllString(name, "-")
	return filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", safe, t.Format("2006-01-02_15-04-05")))
}

func (s *ScreenshotDebugger) CaptureAndLog(page playwright.Page, name, message string) error {
	if s == nil || s.outputDir == "" || page == nil {
		return nil
	}
	path := s.Path(name, time.Now())
	s.log.Warn("📸 "+message, "file", path)

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		s.log.Warn("⚠️ Failed to capture screenshot", "error", err)
		return err
	}
	return nil
}
