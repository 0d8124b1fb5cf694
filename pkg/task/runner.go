package task

import (
	"context"
	"sync"
)

// Runner executes async work keyed by the bead it targets. At most one task per
// key runs at a time; a second submission for a busy key is dropped. Tasks are
// not cancelled when the user navigates away, only on Close.
type Runner struct {
	mu     sync.Mutex
	active map[string]context.CancelFunc
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner(parent context.Context) *Runner {
	ctx, cancel := context.WithCancel(parent)
	return &Runner{
		active: make(map[string]context.CancelFunc),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go starts fn for key unless one is already in flight. It reports whether fn
// was started.
func (r *Runner) Go(key string, fn func(ctx context.Context)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctx.Err() != nil {
		return false
	}
	if _, busy := r.active[key]; busy {
		return false
	}

	ctx, cancel := context.WithCancel(r.ctx)
	r.active[key] = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.finish(key)
		fn(ctx)
	}()
	return true
}

// Cancel stops the task for key, if any.
func (r *Runner) Cancel(key string) {
	r.mu.Lock()
	cancel, ok := r.active[key]
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

func (r *Runner) InFlight(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[key]
	return ok
}

// Close cancels every task and waits for them to return.
func (r *Runner) Close() {
	r.cancel()
	r.wg.Wait()
}

func (r *Runner) finish(key string) {
	r.mu.Lock()
	if cancel, ok := r.active[key]; ok {
		cancel()
		delete(r.active, key)
	}
	r.mu.Unlock()
}
