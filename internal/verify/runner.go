package verify

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned by Submit while a verification is in flight
var ErrBusy = errors.New("a verification is already in progress")

// Runner allows at most one verification in flight at a time
type Runner struct {
	svc *Service

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a runner over the service
func NewRunner(svc *Service) *Runner {
	return &Runner{svc: svc}
}

// Submit starts verifying claim. The returned channel first carries a
// Pending outcome, then the terminal outcome, then closes. If the flow is
// cancelled the channel closes after Pending with no terminal outcome.
func (r *Runner) Submit(ctx context.Context, claim string) (<-chan Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return nil, ErrBusy
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	updates := make(chan Outcome, 2)
	updates <- Outcome{State: StatePending}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(updates)
		defer r.release()

		out, err := r.svc.VerifyAndRecord(runCtx, claim)
		if err != nil {
			return
		}
		updates <- out
	}()

	return updates, nil
}

// Busy reports whether a verification is in flight
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Cancel abandons the in-flight verification, if any
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}

// Wait blocks until the in-flight verification has finished
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
