package pool

import (
	"errors"
	"fmt"
)

var (
	// ErrAcceptWindowExpired is returned by Submit once the configured
	// accept window has elapsed since the pool's first submission.
	ErrAcceptWindowExpired = errors.New("accept window expired")

	// ErrTaskTimeout marks a task that exceeded the per-task timeout.
	ErrTaskTimeout = errors.New("task timed out")

	// ErrTasksFailed is returned by Join, when WithRaiseOnJoin is set, if
	// any task has failed since the last Start.
	ErrTasksFailed = errors.New("one or more tasks failed")

	// ErrFutureTimeout is returned by Future.GetWithTimeout when the result
	// is not ready in time.
	ErrFutureTimeout = errors.New("future: result not ready before timeout")
)

// PanicError wraps a panic recovered from a worker callback. Panics are the
// unrecoverable class of failures: the worker that observed one retires
// immediately after classification and Join reports the error.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker panic: %v", e.Value)
}
