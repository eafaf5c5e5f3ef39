package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRunLimiter_AcquireRelease(t *testing.T) {
	limiter := NewRunLimiter(2, time.Second)
	ctx := context.Background()

	if err := limiter.Acquire(ctx, RunMedia); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if err := limiter.Acquire(ctx, RunImport); err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}

	status := limiter.Status()
	if status.Active != 2 || status.Available != 0 {
		t.Errorf("status = %+v, want 2 active and 0 available", status)
	}
	if status.ActiveMedia != 1 || status.ActiveImports != 1 {
		t.Errorf("per-kind counts = %d media / %d imports, want 1/1", status.ActiveMedia, status.ActiveImports)
	}

	limiter.Release(RunMedia)
	limiter.Release(RunImport)

	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestRunLimiter_TimesOutWhenFull(t *testing.T) {
	limiter := NewRunLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if err := limiter.Acquire(ctx, RunMedia); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release(RunMedia)

	err := limiter.Acquire(ctx, RunImport)
	if !errors.Is(err, ErrTooManyRuns) {
		t.Errorf("expected ErrTooManyRuns, got %v", err)
	}
}

func TestRunLimiter_ContextCancellation(t *testing.T) {
	limiter := NewRunLimiter(1, 5*time.Second)

	if !limiter.TryAcquire(RunMedia) {
		t.Fatal("TryAcquire on empty limiter failed")
	}
	defer limiter.Release(RunMedia)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- limiter.Acquire(ctx, RunMedia)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after cancellation")
	}
}

func TestRunLimiter_TryAcquire(t *testing.T) {
	limiter := NewRunLimiter(1, time.Second)

	if !limiter.TryAcquire(RunImport) {
		t.Fatal("first TryAcquire should succeed")
	}
	if limiter.TryAcquire(RunImport) {
		t.Error("second TryAcquire should fail")
	}

	limiter.Release(RunImport)
	if !limiter.TryAcquire(RunImport) {
		t.Error("TryAcquire after Release should succeed")
	}
	limiter.Release(RunImport)
}

func TestRunLimiter_NeverExceedsMax(t *testing.T) {
	const maxConcurrent = 3

	limiter := NewRunLimiter(maxConcurrent, time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	maxObserved := 0

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background(), RunMedia); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer limiter.Release(RunMedia)

			mu.Lock()
			if n := limiter.ActiveCount(); n > maxObserved {
				maxObserved = n
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	if maxObserved > maxConcurrent {
		t.Errorf("observed %d concurrent runs, max %d", maxObserved, maxConcurrent)
	}
}

func TestRunLimiter_WaitForDrain(t *testing.T) {
	limiter := NewRunLimiter(2, time.Second)

	if err := limiter.WaitForDrain(context.Background()); err != nil {
		t.Fatalf("WaitForDrain on idle limiter: %v", err)
	}

	limiter.TryAcquire(RunMedia)
	go func() {
		time.Sleep(50 * time.Millisecond)
		limiter.Release(RunMedia)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := limiter.WaitForDrain(ctx); err != nil {
		t.Errorf("WaitForDrain returned %v", err)
	}
}

func TestRunLimiter_WaitForDrainDeadline(t *testing.T) {
	limiter := NewRunLimiter(1, time.Second)
	limiter.TryAcquire(RunImport)
	defer limiter.Release(RunImport)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := limiter.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestRunLimiter_DefaultValues(t *testing.T) {
	limiter := NewRunLimiter(0, 0)

	if got := limiter.Status().MaxConcurrent; got != DefaultMaxConcurrentRuns {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentRuns)
	}
	if limiter.maxWait != DefaultMaxWaitTime {
		t.Errorf("maxWait = %v, want %v", limiter.maxWait, DefaultMaxWaitTime)
	}
}
