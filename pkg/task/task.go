// Package task provides a future that resolves after a declared delay.
package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/codenexus/storefront/pkg/clock"
)

// ErrCancelled is returned by Wait when the task was cancelled before it ran.
var ErrCancelled = errors.New("task cancelled")

// Task is the pending result of a function scheduled to run after a delay.
type Task[T any] struct {
	done  chan struct{}
	once  sync.Once
	timer clock.Timer

	val T
	err error
}

// After schedules fn to run once d has elapsed on clk.
func After[T any](clk clock.Clock, d time.Duration, fn func() (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	t.timer = clk.AfterFunc(d, func() {
		v, err := fn()
		t.resolve(v, err)
	})
	return t
}

// Done is closed once the task has a result.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task resolves or ctx ends.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel stops a task that has not run yet. It reports whether the task was stopped.
func (t *Task[T]) Cancel() bool {
	if !t.timer.Stop() {
		return false
	}
	var zero T
	t.resolve(zero, ErrCancelled)
	return true
}

func (t *Task[T]) resolve(v T, err error) {
	t.once.Do(func() {
		t.val, t.err = v, err
		close(t.done)
	})
}
