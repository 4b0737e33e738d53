package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
)

// worker is the loop run by each of the pool's goroutines: dequeue, retire
// on a termination marker, otherwise execute and classify. The returned
// error is non-nil only for the unrecoverable panic class, which retires
// this worker early; ordinary task failures keep the loop going.
func (p *Pool[T, R]) worker(id int) error {
	for {
		it := <-p.queue
		if it.stop {
			p.logger.Debug("worker retiring", slog.String("pool", p.name), slog.Int("worker", id))
			return nil
		}
		if err := p.process(it); err != nil {
			return err
		}
	}
}

// process executes one dequeued task and delivers its outcome. The active
// slot is released on every exit path, including the panic path.
func (p *Pool[T, R]) process(it item[T, R]) error {
	p.active.Add(1)
	defer p.active.Add(-1)

	result, err := p.invoke(it.task)
	if err == nil {
		if it.future != nil {
			it.future.resolve(result)
		}
		return nil
	}

	p.failed.Store(true)
	// A present future means the caller observes the failure; logging it
	// here as well would report it twice.
	if it.future != nil {
		it.future.reject(err)
	} else {
		p.logger.Error("worker call failed", slog.String("pool", p.name), slog.Any("error", err))
	}

	var pe *PanicError
	if errors.As(err, &pe) {
		return err
	}
	return nil
}

type outcome[R any] struct {
	value R
	err   error
}

// invoke runs the worker function, bounded by the per-task timeout when one
// is configured. The callback runs in its own goroutine so that a task
// overrunning its deadline never blocks the worker: on timeout the task's
// context is cancelled, the in-flight call is abandoned, and the timeout is
// reported as an ordinary task failure. A panic inside the callback is
// captured as a *PanicError with its stack.
func (p *Pool[T, R]) invoke(task T) (R, error) {
	ctx := context.Background()
	if p.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.taskTimeout)
		defer cancel()
	}

	done := make(chan outcome[R], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				var zero R
				done <- outcome[R]{zero, &PanicError{Value: r, Stack: buf[:n]}}
			}
		}()
		value, err := p.fn(ctx, task)
		done <- outcome[R]{value, err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		var zero R
		return zero, fmt.Errorf("pool %q: task exceeded %v: %w", p.name, p.taskTimeout, ErrTaskTimeout)
	}
}
