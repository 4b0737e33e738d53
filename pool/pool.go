package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pool is a named, bounded worker pool accepting asynchronous task
// submissions. It maintains a fixed set of worker goroutines reading a
// shared FIFO queue of workers × load-factor capacity; a full queue blocks
// submitters, which is the pool's back-pressure guarantee.
//
// The zero value is not usable; construct with New. A Pool may be started,
// joined, and restarted repeatedly.
//
// Type parameters:
//   - T: The submitted task type
//   - R: The result type produced by the worker function
type Pool[T any, R any] struct {
	name    string
	workers int
	fn      WorkerFunc[T, R]
	queue   chan item[T, R]
	logger  *slog.Logger

	acceptWindow  time.Duration
	taskTimeout   time.Duration
	returnFutures bool
	raiseOnJoin   bool
	logEvery      int64
	expectedTotal int64

	mu          sync.Mutex
	group       *errgroup.Group
	stopMarkers int // markers enqueued by a joined-but-aborted drain, consumed on retry

	failed      atomic.Bool
	totalQueued atomic.Int64
	active      atomic.Int64
	firstSubmit atomic.Int64 // unix nanos of the first Submit, set once per Pool value
}

// New creates a pool of workers goroutines invoking fn for every submitted
// task. The pool is created stopped; call Start before submitting.
//
// Parameters:
//   - name: Pool name, used in log output and error messages
//   - workers: Number of worker goroutines spawned by Start
//   - fn: The operation invoked for each task
//   - opts: Optional configuration (load factor, timeouts, futures, logging)
//
// New panics when workers is not positive or fn is nil: both are
// programming errors, not runtime conditions.
//
// Example:
//
//	p := pool.New("thumbnails", 4, makeThumb,
//	    pool.WithLoadFactor(2),
//	    pool.WithTaskTimeout(30*time.Second),
//	    pool.WithFutures(),
//	)
func New[T any, R any](name string, workers int, fn WorkerFunc[T, R], opts ...Option) *Pool[T, R] {
	if workers < 1 {
		panic("pool: worker count must be positive")
	}
	if fn == nil {
		panic("pool: worker function is required")
	}

	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	return &Pool[T, R]{
		name:          name,
		workers:       workers,
		fn:            fn,
		queue:         make(chan item[T, R], workers*cfg.loadFactor),
		logger:        cfg.logger,
		acceptWindow:  cfg.acceptWindow,
		taskTimeout:   cfg.taskTimeout,
		returnFutures: cfg.returnFutures,
		raiseOnJoin:   cfg.raiseOnJoin,
		logEvery:      cfg.logEvery,
		expectedTotal: cfg.expectedTotal,
	}
}

// Start launches the pool's workers and clears the sticky failure flag.
//
// Start panics if the pool is already running: starting a started pool is a
// contract violation, not a recoverable condition. Whoever starts a pool
// must guarantee Join runs on every exit path, or worker goroutines leak.
func (p *Pool[T, R]) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.group != nil {
		panic(fmt.Sprintf("pool %q: already started", p.name))
	}

	p.failed.Store(false)

	g := new(errgroup.Group)
	for i := range p.workers {
		g.Go(func() error {
			return p.worker(i)
		})
	}
	p.group = g

	p.logger.Info("pool started", slog.String("pool", p.name), slog.Int("workers", p.workers))
}

// Submit queues one task for processing. It blocks while the queue is at
// capacity, until either a worker frees a slot or ctx is cancelled.
//
// The first Submit on a Pool value stamps the accept-window clock; when an
// accept window is configured and has elapsed, Submit fails immediately
// with an error wrapping ErrAcceptWindowExpired without attempting to
// enqueue. The window outlives Start/Join cycles.
//
// Returns:
//   - future: The task's result handle, or nil unless WithFutures is set
//   - error: Non-nil when the accept window has expired or ctx is cancelled
func (p *Pool[T, R]) Submit(ctx context.Context, task T) (*Future[R], error) {
	now := time.Now().UnixNano()
	p.firstSubmit.CompareAndSwap(0, now)

	if p.acceptWindow > 0 {
		elapsed := time.Duration(now - p.firstSubmit.Load())
		if elapsed > p.acceptWindow {
			return nil, fmt.Errorf("pool %q: %w (window %v, elapsed %v)",
				p.name, ErrAcceptWindowExpired, p.acceptWindow, elapsed.Round(time.Millisecond))
		}
	}

	var future *Future[R]
	if p.returnFutures {
		future = newFuture[R]()
	}

	select {
	case p.queue <- item[T, R]{task: task, future: future}:
	case <-ctx.Done():
		return nil, fmt.Errorf("pool %q: submit: %w", p.name, ctx.Err())
	}

	queued := p.totalQueued.Add(1)
	if p.logEvery > 0 && queued%p.logEvery == 0 {
		p.logger.Info("queue progress",
			slog.String("pool", p.name),
			slog.Int64("queued", queued),
			slog.Int64("expected", p.expectedTotal))
	}
	p.logger.Debug("task received", slog.String("pool", p.name))

	return future, nil
}

// Join drains and stops the pool. It enqueues exactly one termination
// marker per worker, then waits until every worker has retired. Any worker
// may consume any marker; a worker retires on the first marker it sees and
// never dequeues again, so N markers retire exactly N workers.
//
// Join is a no-op when the pool is not running. After a clean join the pool
// may be started again; the sticky failure flag is left untouched (only
// Start resets it). A join aborted by ctx cancellation may be retried: the
// retry accounts for markers already enqueued and tops up only the
// shortfall, so exactly N markers ever reach the workers.
//
// Returns:
//   - error: The abnormal worker-exit error if a worker panicked; otherwise
//     an error wrapping ErrTasksFailed when WithRaiseOnJoin is set and any
//     task failed since the last Start; otherwise ctx's error if the drain
//     was cancelled; otherwise nil
func (p *Pool[T, R]) Join(ctx context.Context) error {
	p.mu.Lock()
	g := p.group
	p.mu.Unlock()

	if g == nil {
		return nil
	}

	p.logger.Info("joining pool", slog.String("pool", p.name))

	// Markers from a join that was aborted by ctx cancellation are still on
	// the queue; enqueue only the shortfall so a retried join never leaves a
	// stale marker behind to retire a freshly started worker.
	p.mu.Lock()
	missing := p.workers - p.stopMarkers
	p.mu.Unlock()

	for range missing {
		select {
		case p.queue <- item[T, R]{stop: true}:
			p.mu.Lock()
			p.stopMarkers++
			p.mu.Unlock()
		case <-ctx.Done():
			return fmt.Errorf("pool %q: join: %w", p.name, ctx.Err())
		}
	}

	err := g.Wait()
	if err != nil {
		p.logger.Error("abnormal worker exit during join",
			slog.String("pool", p.name), slog.Any("error", err))
	} else {
		p.mu.Lock()
		p.group = nil
		p.stopMarkers = 0
		p.mu.Unlock()
	}
	p.logger.Info("join complete", slog.String("pool", p.name))

	if err != nil {
		return err
	}
	if p.raiseOnJoin && p.failed.Load() {
		return fmt.Errorf("pool %q: %w", p.name, ErrTasksFailed)
	}
	return nil
}

// Failed reports whether any task has failed since the last Start. The flag
// is sticky: it stays set across Join and is cleared only by Start.
func (p *Pool[T, R]) Failed() bool {
	return p.failed.Load()
}

// TotalQueued returns the number of tasks accepted since the Pool was
// created. The counter survives Start/Join cycles.
func (p *Pool[T, R]) TotalQueued() int64 {
	return p.totalQueued.Load()
}

// HasOpenWorkers reports whether at least one worker is not currently
// executing a task, for callers doing manual admission control instead of
// relying on queue back-pressure.
func (p *Pool[T, R]) HasOpenWorkers() bool {
	return p.AvailableWorkers() > 0
}

// AvailableWorkers returns how many workers are not currently executing a
// task.
func (p *Pool[T, R]) AvailableWorkers() int {
	return p.workers - int(p.active.Load())
}
