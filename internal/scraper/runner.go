package scraper

import (
	"context"
	"sync"
)

// Locker hands out the single run slot (see runlock).
type Locker interface {
	TryLock(ctx context.Context) (release func(), err error)
}

type runnable interface {
	Run(ctx context.Context, p RunParams) RunResult
}

// Runner serializes runs through a Locker and remembers the last result.
// The API and the scheduler share one Runner.
type Runner struct {
	orch   runnable
	locker Locker

	mu   sync.RWMutex
	last *RunResult
}

func NewRunner(orch runnable, locker Locker) *Runner {
	return &Runner{orch: orch, locker: locker}
}

// Run validates p, takes the run slot and runs. It returns the locker's
// error (runlock.ErrBusy when a run is active) or ErrInvalidParams without
// starting anything.
func (r *Runner) Run(ctx context.Context, p RunParams) (RunResult, error) {
	if err := p.Validate(); err != nil {
		return RunResult{}, err
	}
	release, err := r.locker.TryLock(ctx)
	if err != nil {
		return RunResult{}, err
	}
	defer release()

	res := r.orch.Run(ctx, p)

	r.mu.Lock()
	r.last = &res
	r.mu.Unlock()
	return res, nil
}

// Last returns the result of the most recent completed run.
func (r *Runner) Last() (RunResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return RunResult{}, false
	}
	return *r.last, true
}
