package browser

import (
	"context"
	"math/rand"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Pacing adds human-looking pauses around navigation. The zero value does
// nothing, which is what tests use.
type Pacing struct {
	MinDelay   time.Duration
	MaxDelay   time.Duration
	Scroll     bool
	// move the mouse around the viewport after each load
	MouseMoves bool
}

// Wait sleeps for a random duration in [MinDelay, MaxDelay] or until ctx ends.
func (p Pacing) Wait(ctx context.Context) error {
	return RandomDelay(ctx, p.MinDelay, p.MaxDelay)
}

// RandomDelay waits for a random duration between min and max.
func RandomDelay(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}
	if d <= 0 {
		return ctx.Err()
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

// HumanScroll scrolls down in steps and back up a little, which also
// triggers lazy-loaded content.
func HumanScroll(ctx context.Context, page playwright.Page) error {
	for i := 0; i < 3; i++ {
		if _, err := page.Evaluate("window.scrollBy(0, window.innerHeight / 2)"); err != nil {
			return err
		}
		if err := RandomDelay(ctx, 200*time.Millisecond, 600*time.Millisecond); err != nil {
			return err
		}
	}
	_, err := page.Evaluate("window.scrollBy(0, -200)")
	return err
}

// MouseJiggle moves the mouse to a few random points inside the viewport.
func MouseJiggle(ctx context.Context, page playwright.Page) error {
	vp := page.ViewportSize()
	if vp == nil {
		return nil
	}
	return jiggle(ctx, page.Mouse(), vp.Width, vp.Height, 3, 100*time.Millisecond, 300*time.Millisecond)
}

type mouseMover interface {
	Move(x, y float64, options ...playwright.MouseMoveOptions) error
}

func jiggle(ctx context.Context, m mouseMover, width, height, moves int, minPause, maxPause time.Duration) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	for i := 0; i < moves; i++ {
		x, y := rand.Intn(width), rand.Intn(height)
		if err := m.Move(float64(x), float64(y), playwright.MouseMoveOptions{Steps: playwright.Int(5)}); err != nil {
			return err
		}
		if err := RandomDelay(ctx, minPause, maxPause); err != nil {
			return err
		}
	}
	return nil
}
