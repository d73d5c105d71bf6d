package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/matt0x6f/rocketchat-desktop/internal/logger"
)

// Tasks runs background work that lives as long as the app. Its context
// exists from construction, so work may be started before the Wails
// runtime calls startup.
type Tasks struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewTasks creates a running task group
func NewTasks() *Tasks {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tasks{ctx: ctx, cancel: cancel}
}

// Go runs fn on a tracked goroutine. fn's context is cancelled by Stop.
// Panics are logged, not propagated. After Stop, Go does nothing and
// returns false.
func (t *Tasks) Go(name string, fn func(ctx context.Context)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		logger.Log.Debug().Str("task", name).Msg("Task group stopped, not starting task")
		return false
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error().Interface("panic", r).Str("task", name).Msg("PANIC in background task")
			}
		}()
		fn(t.ctx)
	}()
	return true
}

// Stop cancels running tasks and waits up to timeout for them to return.
// It reports whether every task finished in time.
func (t *Tasks) Stop(timeout time.Duration) bool {
	t.mu.Lock()
	t.stopped = true
	t.cancel()
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
