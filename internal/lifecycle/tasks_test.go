package lifecycle

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTasksContextUsableBeforeStartup(t *testing.T) {
	tasks := NewTasks()
	got := make(chan context.Context, 1)

	assert.True(t, tasks.Go("capture", func(ctx context.Context) { got <- ctx }))

	ctx := <-got
	assert.NotNil(t, ctx)
	assert.NoError(t, ctx.Err())
	assert.True(t, tasks.Stop(time.Second))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestTasksStopCancelsAndWaits(t *testing.T) {
	tasks := NewTasks()
	var finished atomic.Int32
	for i := 0; i < 4; i++ {
		tasks.Go("wait", func(ctx context.Context) {
			<-ctx.Done()
			finished.Add(1)
		})
	}

	assert.True(t, tasks.Stop(time.Second))
	assert.Equal(t, int32(4), finished.Load())
}

func TestTasksStopTimesOut(t *testing.T) {
	tasks := NewTasks()
	release := make(chan struct{})
	defer close(release)
	tasks.Go("stuck", func(context.Context) { <-release })

	assert.False(t, tasks.Stop(10*time.Millisecond))
}

func TestTasksRecoverPanics(t *testing.T) {
	tasks := NewTasks()
	tasks.Go("panics", func(context.Context) { panic("boom") })

	assert.True(t, tasks.Stop(time.Second))
}

func TestTasksRejectWorkAfterStop(t *testing.T) {
	tasks := NewTasks()
	assert.True(t, tasks.Stop(time.Second))

	var ran atomic.Bool
	assert.False(t, tasks.Go("late", func(context.Context) { ran.Store(true) }))
	assert.True(t, tasks.Stop(time.Second))
	assert.False(t, ran.Load())
}

func TestTasksConcurrentStart(t *testing.T) {
	tasks := NewTasks()
	var count atomic.Int32
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		go func() {
			<-start
			tasks.Go("count", func(context.Context) { count.Add(1) })
		}()
	}
	close(start)
	time.Sleep(20 * time.Millisecond)

	assert.True(t, tasks.Stop(time.Second))
	assert.LessOrEqual(t, count.Load(), int32(16))
}
