// Package pagination moves a rendered listing from one page to the next and
// verifies that the content actually changed.
package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-jobboard-scraper/internal/browser"
	"go-jobboard-scraper/internal/rules"
	"go-jobboard-scraper/pkg/logging"

	"github.com/PuerkitoBio/goquery"
)

const (
	ReasonAdvanced  = "advanced"
	ReasonUnchanged = "unchanged"
	ReasonEndMarker = "end_marker"
	ReasonNoControl = "no_control"
	ReasonStalled   = "stalled"
	ReasonError     = "error"

	DefaultPollInterval = 500 * time.Millisecond
	DefaultPollAttempts = 10

	// stale attempts in a row that end pagination
	maxStaleStreak = 2
	// consecutive polls with the same, new item count that count as settled
	plateauPolls = 2
)

const snapshotScript = `() => document.documentElement.outerHTML`

// Probe summarizes a listing snapshot: how many items it shows and an
// identifying signature of the first one.
type Probe func(html string) (count int, signature string)

type Options struct {
	Selectors    rules.PaginationSelectors
	PollInterval time.Duration
	PollAttempts int
	// optional predicate awaited once after each click
	ReadyPredicate string
	ReadyTimeout   time.Duration
}

// Step is the outcome of one Next call. HTML is the snapshot of the new page
// when Advanced is true.
type Step struct {
	Advanced bool
	Reason   string
	HTML     string
}

// Navigator tracks {page number, first item signature}. Terminal states are
// sticky: once Next returns Advanced=false it keeps doing so.
type Navigator struct {
	f     browser.Fetcher
	probe Probe
	opts  Options
	log   *logging.Logger

	page        int
	staleStreak int
	done        bool
	doneReason  string
}

func New(f browser.Fetcher, probe Probe, opts Options, log *logging.Logger) *Navigator {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = DefaultPollAttempts
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 5 * time.Second
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Navigator{f: f, probe: probe, opts: opts, log: log, page: 1}
}

// Page is the 1-based number of the page currently shown.
func (n *Navigator) Page() int {
	return n.page
}

// Next tries to move to the following page. An attempt whose content never
// changes still reports Advanced with ReasonUnchanged; the second such
// attempt in a row is terminal.
func (n *Navigator) Next(ctx context.Context) Step {
	if n.done {
		return Step{Reason: n.doneReason}
	}

	before, err := n.snapshot(ctx)
	if err != nil {
		return n.stop(ReasonError, "snapshot failed", err)
	}
	if marker, ok := n.endMarker(before); ok {
		return n.stop(ReasonEndMarker, "end of results marker found", nil, "marker", marker)
	}
	baseCount, baseSig := n.probe(before)

	clicked, how, err := n.click(ctx)
	if err != nil {
		return n.stop(ReasonError, "pagination click failed", err)
	}
	if !clicked {
		return n.stop(ReasonNoControl, "no next-page control", nil)
	}
	n.log.Debug("pagination control clicked", "via", how, "page", n.page)

	if n.opts.ReadyPredicate != "" {
		if _, err := n.f.WaitForCondition(ctx, n.opts.ReadyPredicate, n.opts.ReadyTimeout); err != nil {
			return n.stop(ReasonError, "waiting for page failed", err)
		}
	}

	after, changed, err := n.poll(ctx, baseCount, baseSig)
	if err != nil {
		return n.stop(ReasonError, "polling failed", err)
	}

	if changed {
		n.staleStreak = 0
		n.page++
		n.log.Info("➡️ Moved to next page", "page", n.page)
		return Step{Advanced: true, Reason: ReasonAdvanced, HTML: after}
	}

	n.staleStreak++
	if n.staleStreak >= maxStaleStreak {
		return n.stop(ReasonStalled, "page content did not change", nil, "attempts", n.staleStreak)
	}
	n.page++
	n.log.Warn("⚠️ Page content unchanged after click, continuing", "page", n.page)
	return Step{Advanced: true, Reason: ReasonUnchanged, HTML: after}
}

// poll snapshots the page until the first item's signature differs from the
// baseline, or the item count moves and then holds steady, or attempts run out.
func (n *Navigator) poll(ctx context.Context, baseCount int, baseSig string) (string, bool, error) {
	var last string
	prevCount, plateau := baseCount, 0
	for i := 0; i < n.opts.PollAttempts; i++ {
		if err := sleep(ctx, n.opts.PollInterval); err != nil {
			return "", false, err
		}
		html, err := n.snapshot(ctx)
		if err != nil {
			return "", false, err
		}
		last = html

		count, sig := n.probe(html)
		if sig != "" && sig != baseSig {
			return html, true, nil
		}
		if count != baseCount && count == prevCount {
			plateau++
			if plateau >= plateauPolls {
				return html, true, nil
			}
		} else {
			plateau = 0
		}
		prevCount = count
	}
	return last, false, nil
}

func (n *Navigator) snapshot(ctx context.Context) (string, error) {
	v, err := n.f.ExecuteScript(ctx, snapshotScript)
	if err != nil {
		return "", err
	}
	html, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("snapshot returned %T", v)
	}
	return html, nil
}

func (n *Navigator) endMarker(html string) (string, bool) {
	if len(n.opts.Selectors.EndMarkers) == 0 {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	doc.Find("script, style, noscript").Remove()
	text := strings.ToLower(strings.Join(strings.Fields(doc.Find("body").Text()), " "))
	for _, m := range n.opts.Selectors.EndMarkers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" && strings.Contains(text, m) {
			return m, true
		}
	}
	return "", false
}

// click tries a page-number control for page+1, then a next control.
func (n *Navigator) click(ctx context.Context) (bool, string, error) {
	if len(n.opts.Selectors.PageButtons) > 0 {
		ok, err := n.run(ctx, pageButtonScript(n.opts.Selectors.PageButtons, n.page+1))
		if err != nil || ok {
			return ok, "page_number", err
		}
	}
	if len(n.opts.Selectors.Next) > 0 {
		ok, err := n.run(ctx, nextButtonScript(n.opts.Selectors.Next, n.page))
		return ok, "next", err
	}
	return false, "", nil
}

func (n *Navigator) run(ctx context.Context, js string) (bool, error) {
	v, err := n.f.ExecuteScript(ctx, js)
	if err != nil {
		return false, err
	}
	ok, _ := v.(bool)
	return ok, nil
}

func (n *Navigator) stop(reason, msg string, err error, keyvals ...any) Step {
	n.done = true
	n.doneReason = reason
	keyvals = append(keyvals, "page", n.page, "reason", reason)
	if err != nil {
		keyvals = append(keyvals, "error", err)
	}
	n.log.Info("🛑 Pagination finished: "+msg, keyvals...)
	return Step{Reason: reason}
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func jsList(selectors []string) string {
	b, _ := json.Marshal(selectors)
	return string(b)
}

// pageButtonScript clicks the first enabled control whose text is exactly target.
func pageButtonScript(selectors []string, target int) string {
	return `(function clickPageButton(selectors, target) {
  for (const sel of selectors) {
    let nodes;
    try { nodes = document.querySelectorAll(sel); } catch (e) { continue; }
    for (const el of nodes) {
      if ((el.textContent || '').trim() !== target) continue;
      if (el.disabled || el.getAttribute('aria-disabled') === 'true') continue;
      el.scrollIntoView({ block: 'center' });
      el.click();
      return true;
    }
  }
  return false;
})(` + jsList(selectors) + `, ` + strconv.Quote(strconv.Itoa(target)) + `)`
}

// nextButtonScript clicks the first visible, enabled next control that is not
// the current page's own number.
func nextButtonScript(selectors []string, current int) string {
	return `(function clickNextButton(selectors, current) {
  for (const sel of selectors) {
    let nodes;
    try { nodes = document.querySelectorAll(sel); } catch (e) { continue; }
    for (const el of nodes) {
      if (el.disabled || el.getAttribute('aria-disabled') === 'true') continue;
      if ((el.className || '').toString().includes('disabled')) continue;
      if ((el.textContent || '').trim() === current) continue;
      if (el.offsetParent === null && getComputedStyle(el).position !== 'fixed') continue;
      el.scrollIntoView({ block: 'center' });
      el.click();
      return true;
    }
  }
  return false;
})(` + jsList(selectors) + `, ` + strconv.Quote(strconv.Itoa(current)) + `)`
}
