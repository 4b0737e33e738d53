// Package pool provides a small, generic worker pool for asynchronous
// task submission with bounded back-pressure.
//
// The primary type is Pool[T, R], a named group of workers consuming tasks
// of type T from a fixed-capacity queue and producing results of type R.
// Producers block once the queue holds workers × load-factor items, which is
// the pool's only throttling mechanism: submissions can never run more than
// that far ahead of the workers.
//
// # Basic Usage
//
//	p := pool.New("resize", 4, func(ctx context.Context, img string) (string, error) {
//	    return resize(ctx, img)
//	})
//	p.Start()
//	for _, img := range images {
//	    if _, err := p.Submit(ctx, img); err != nil {
//	        break
//	    }
//	}
//	err := p.Join(ctx)
//
// # Result Handles
//
// With WithFutures enabled, every Submit returns a Future resolved exactly
// once by the worker that processes the task, with either the result value
// or the classified failure:
//
//	p := pool.New("fetch", 8, fetchOne, pool.WithFutures())
//	p.Start()
//	f, _ := p.Submit(ctx, url)
//	value, err := f.Get()
//
// Without futures, failures surface through the sticky Failed flag and the
// configured logger only, which keeps per-submission overhead minimal for
// fire-and-forget workloads.
//
// # Lifecycle
//
// A Pool may be started, joined, and restarted any number of times. Start
// resets the sticky failure flag; Join drains by enqueuing one termination
// marker per worker and waits for all of them to retire. The submission
// accept window (WithAcceptWindow) is scoped to the Pool value's entire
// lifetime and deliberately survives Start/Join cycles.
//
// # Configuration Options
//
//   - WithLoadFactor(n): queue capacity multiplier (default: 1)
//   - WithAcceptWindow(d): reject submissions d after the first one
//   - WithTaskTimeout(d): bound each task's wall-clock time
//   - WithFutures(): return a Future per submission
//   - WithRaiseOnJoin(): make Join return an error when any task failed
//   - WithLogEvery(n, total): log queue progress every n submissions
//   - WithLogger(l): structured logger for pool diagnostics
//
// # Error Handling
//
// Task failures never abort the pool: they are delivered through the task's
// Future when one exists, logged otherwise, and recorded in the sticky
// Failed flag either way. Only a panic escaping the worker callback retires
// that worker early; Join reports it and the pool does not replace the lost
// worker.
package pool
