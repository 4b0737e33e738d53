package pool

import "context"

// WorkerFunc is the operation invoked for every submitted task. The pool
// imposes no schema on the task or result: it forwards the task verbatim and
// never inspects either value.
//
// The context carries the per-task deadline when WithTaskTimeout is
// configured; implementations should honor cancellation so a timed-out task
// releases its resources promptly.
//
// Type parameters:
//   - T: The submitted task type
//   - R: The result type delivered through the task's Future
type WorkerFunc[T any, R any] func(ctx context.Context, task T) (R, error)

// item is what travels on the pool's queue: either a real task or a
// termination marker. The two cases are distinguished by the stop tag,
// never by inspecting the payload.
type item[T any, R any] struct {
	task   T
	future *Future[R]
	stop   bool
}
