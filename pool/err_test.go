package pool_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fetchq/fetchq/pool"
)

// recordingHandler captures slog records for assertions on logging behavior.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(_ string) slog.Handler      { return h }

func (h *recordingHandler) countLevel(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

func TestPool_TaskTimeout(t *testing.T) {
	p := pool.New("slow", 1, func(ctx context.Context, d time.Duration) (string, error) {
		select {
		case <-time.After(d):
			return "done", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}, pool.WithFutures(), pool.WithTaskTimeout(100*time.Millisecond))
	p.Start()
	defer p.Join(context.Background())

	start := time.Now()
	slow, err := p.Submit(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := slow.Get(); !errors.Is(err, pool.ErrTaskTimeout) {
		t.Fatalf("expected ErrTaskTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("worker was blocked for %v, far beyond the 100ms timeout", elapsed)
	}
	if !p.Failed() {
		t.Error("Failed should be true after a timeout")
	}

	// The worker survives the timeout and serves the next task.
	fast, err := p.Submit(context.Background(), time.Millisecond)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if value, err := fast.Get(); err != nil || value != "done" {
		t.Errorf("follow-up task: got %q, %v", value, err)
	}
}

func TestPool_FailureLogging(t *testing.T) {
	t.Run("no future logs the failure", func(t *testing.T) {
		h := &recordingHandler{}
		p := pool.New("logs", 1, func(ctx context.Context, n int) (int, error) {
			return 0, errors.New("boom")
		}, pool.WithLogger(slog.New(h)))
		p.Start()

		if _, err := p.Submit(context.Background(), 1); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if err := p.Join(context.Background()); err != nil {
			t.Fatalf("join: %v", err)
		}

		if got := h.countLevel(slog.LevelError); got != 1 {
			t.Errorf("expected exactly 1 error log, got %d", got)
		}
	})

	t.Run("future suppresses the log", func(t *testing.T) {
		h := &recordingHandler{}
		p := pool.New("quiet", 1, func(ctx context.Context, n int) (int, error) {
			return 0, errors.New("boom")
		}, pool.WithFutures(), pool.WithLogger(slog.New(h)))
		p.Start()

		future, err := p.Submit(context.Background(), 1)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if _, err := future.Get(); err == nil {
			t.Fatal("expected failure through future")
		}
		if err := p.Join(context.Background()); err != nil {
			t.Fatalf("join: %v", err)
		}

		if got := h.countLevel(slog.LevelError); got != 0 {
			t.Errorf("expected no error logs when caller holds the future, got %d", got)
		}
	})
}

func TestPool_LogEvery(t *testing.T) {
	h := &recordingHandler{}
	p := pool.New("cadence", 2, func(ctx context.Context, n int) (int, error) {
		return n, nil
	}, pool.WithLogEvery(3, 10), pool.WithLogger(slog.New(h)))
	p.Start()

	for i := range 10 {
		if _, err := p.Submit(context.Background(), i); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if err := p.Join(context.Background()); err != nil {
		t.Fatalf("join: %v", err)
	}

	var got []int64
	h.mu.Lock()
	for _, r := range h.records {
		if r.Message != "queue progress" {
			continue
		}
		r.Attrs(func(a slog.Attr) bool {
			switch a.Key {
			case "queued":
				got = append(got, a.Value.Int64())
			case "expected":
				if a.Value.Int64() != 10 {
					t.Errorf("expected-total attr = %d, want 10", a.Value.Int64())
				}
			}
			return true
		})
	}
	h.mu.Unlock()

	want := []int64{3, 6, 9}
	if len(got) != len(want) {
		t.Fatalf("got progress records for %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("progress record %d reports queued=%d, want %d", i, got[i], want[i])
		}
	}
}

func TestPool_StickyFailureFlag(t *testing.T) {
	fail := true
	p := pool.New("sticky", 2, func(ctx context.Context, n int) (int, error) {
		if fail {
			return 0, errors.New("boom")
		}
		return n, nil
	})

	p.Start()
	if p.Failed() {
		t.Fatal("Failed should be false immediately after Start")
	}
	if _, err := p.Submit(context.Background(), 1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := p.Join(context.Background()); err != nil {
		t.Fatalf("join: %v", err)
	}
	if !p.Failed() {
		t.Fatal("Failed should be true after a task failure")
	}

	// Join never clears the flag; only Start does.
	fail = false
	p.Start()
	if p.Failed() {
		t.Error("Start should reset the sticky failure flag")
	}
	if _, err := p.Submit(context.Background(), 2); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := p.Join(context.Background()); err != nil {
		t.Fatalf("join: %v", err)
	}
	if p.Failed() {
		t.Error("Failed should stay false after a clean run")
	}
}

func TestPool_RaiseOnJoin(t *testing.T) {
	p := pool.New("raise", 2, func(ctx context.Context, n int) (int, error) {
		return 0, errors.New("boom")
	}, pool.WithRaiseOnJoin())

	p.Start()
	if _, err := p.Submit(context.Background(), 1); err != nil {
		t.Fatalf("submit: %v", err)
	}

	err := p.Join(context.Background())
	if !errors.Is(err, pool.ErrTasksFailed) {
		t.Fatalf("expected ErrTasksFailed from join, got %v", err)
	}

	// The pool remains usable after an aggregate failure.
	p.Start()
	if err := p.Join(context.Background()); err != nil {
		t.Fatalf("join after restart: %v", err)
	}
}

func TestPool_WorkerPanic(t *testing.T) {
	t.Run("panic surfaces through join", func(t *testing.T) {
		p := pool.New("panicky", 2, func(ctx context.Context, n int) (int, error) {
			if n < 0 {
				panic("unrecoverable")
			}
			return n, nil
		})
		p.Start()

		if _, err := p.Submit(context.Background(), -1); err != nil {
			t.Fatalf("submit: %v", err)
		}

		err := p.Join(context.Background())
		var pe *pool.PanicError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PanicError from join, got %v", err)
		}
		if !p.Failed() {
			t.Error("Failed should be true after a panic")
		}
	})

	t.Run("panic resolves the future", func(t *testing.T) {
		p := pool.New("panicky", 2, func(ctx context.Context, n int) (int, error) {
			panic("unrecoverable")
		}, pool.WithFutures())
		p.Start()

		future, err := p.Submit(context.Background(), 1)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}

		_, err = future.Get()
		var pe *pool.PanicError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PanicError through future, got %v", err)
		}
		p.Join(context.Background())
	})

	t.Run("surviving workers keep serving", func(t *testing.T) {
		p := pool.New("degraded", 2, func(ctx context.Context, n int) (int, error) {
			if n < 0 {
				panic("unrecoverable")
			}
			return n * 2, nil
		}, pool.WithFutures())
		p.Start()

		bad, err := p.Submit(context.Background(), -1)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if _, err := bad.Get(); err == nil {
			t.Fatal("expected failure from panicking task")
		}

		// One worker is gone; the other still drains the queue.
		for i := range 5 {
			future, err := p.Submit(context.Background(), i)
			if err != nil {
				t.Fatalf("submit %d: %v", i, err)
			}
			if value, err := future.Get(); err != nil || value != i*2 {
				t.Errorf("task %d: got %d, %v", i, value, err)
			}
		}

		if err := p.Join(context.Background()); err == nil {
			t.Error("join should report the abnormal worker exit")
		}
	})
}
