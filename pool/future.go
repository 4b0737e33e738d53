package pool

import (
	"sync"
	"time"
)

// Future is a single-resolution handle for a submitted task's outcome.
// Exactly one of a result value or an error is delivered, exactly once, by
// the worker that processed the task. A Future is safe for concurrent use.
type Future[R any] struct {
	once  sync.Once
	done  chan struct{}
	value R
	err   error
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

// complete resolves the future. Resolution is atomic and happens at most
// once; later calls are ignored.
func (f *Future[R]) complete(value R, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

func (f *Future[R]) resolve(value R) {
	f.complete(value, nil)
}

func (f *Future[R]) reject(err error) {
	var zero R
	f.complete(zero, err)
}

// Get blocks until the task completes and returns its result or failure.
func (f *Future[R]) Get() (R, error) {
	<-f.done
	return f.value, f.err
}

// GetWithTimeout waits up to d for the result. It returns ErrFutureTimeout
// if the task has not completed in time; the future stays valid and a later
// Get still observes the eventual outcome.
func (f *Future[R]) GetWithTimeout(d time.Duration) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-time.After(d):
		var zero R
		return zero, ErrFutureTimeout
	}
}

// IsReady reports whether the result is available without blocking.
func (f *Future[R]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the result becomes available, for use
// in select statements.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}
