package pool

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring a Pool.
type Option func(*config)

type config struct {
	loadFactor    int
	acceptWindow  time.Duration
	taskTimeout   time.Duration
	returnFutures bool
	raiseOnJoin   bool
	logEvery      int64
	expectedTotal int64
	logger        *slog.Logger
}

func defaultConfig() config {
	return config{
		loadFactor: 1,
		logger:     slog.New(disabledHandler{}),
	}
}

// WithLoadFactor sets the queue capacity multiplier. The queue holds
// workers × factor items before Submit blocks. If not specified,
// defaults to 1 (one queued item per worker).
func WithLoadFactor(factor int) Option {
	return func(cfg *config) {
		if factor >= 1 {
			cfg.loadFactor = factor
		}
	}
}

// WithAcceptWindow limits how long the pool accepts submissions, measured
// from the first call to Submit on this Pool value. Once the window has
// elapsed every further Submit fails with ErrAcceptWindowExpired, even when
// the queue has free capacity. The window is not reset by Start or Join.
func WithAcceptWindow(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.acceptWindow = d
		}
	}
}

// WithTaskTimeout bounds the wall-clock time of each task. A task exceeding
// the timeout has its context cancelled and is classified as a failure
// wrapping ErrTaskTimeout; the worker moves on to the next item.
func WithTaskTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.taskTimeout = d
		}
	}
}

// WithFutures makes Submit return a Future per task, resolved exactly once
// with the task's result or failure. Imposes a small per-submission
// allocation cost.
func WithFutures() Option {
	return func(cfg *config) {
		cfg.returnFutures = true
	}
}

// WithRaiseOnJoin makes Join return an error wrapping ErrTasksFailed when
// any task has failed since the last Start.
func WithRaiseOnJoin() Option {
	return func(cfg *config) {
		cfg.raiseOnJoin = true
	}
}

// WithLogEvery emits a progress log line every n submissions. expectedTotal
// is only used to enrich that log line; it does not bound the queue.
func WithLogEvery(n int, expectedTotal int64) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.logEvery = int64(n)
			cfg.expectedTotal = expectedTotal
		}
	}
}

// WithLogger sets the structured logger used for pool diagnostics.
// If not specified, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}
