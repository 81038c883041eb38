package fetcher

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestRequestBudget_AcquireDecrements(t *testing.T) {
	b := NewRequestBudget()
	start := b.Remaining()

	if err := b.Acquire(context.Background(), 3); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if got := b.Remaining(); got != start-3 {
		t.Errorf("want remaining %d, got %d", start-3, got)
	}
}

func TestRequestBudget_AcquireValidation(t *testing.T) {
	b := NewRequestBudget()
	if err := b.Acquire(context.Background(), 0); err == nil {
		t.Error("expected error for n=0")
	}
	if err := b.Acquire(context.Background(), -1); err == nil {
		t.Error("expected error for negative n")
	}
	if err := b.Acquire(nil, 1); err == nil { //nolint:staticcheck
		t.Error("expected error for nil context")
	}
	var zero RequestBudget
	if err := zero.Acquire(context.Background(), 1); err == nil {
		t.Error("expected error for zero-value budget")
	}
}

func TestRequestBudget_UpdateFromResponse(t *testing.T) {
	b := NewRequestBudget()

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("X-RateLimit-Remaining", "42")
	b.UpdateFromResponse(resp)

	if got := b.Remaining(); got != 42 {
		t.Errorf("want remaining 42, got %d", got)
	}

	// Garbage and missing headers leave the budget untouched.
	bad := &http.Response{Header: http.Header{}}
	bad.Header.Set("X-RateLimit-Remaining", "not-a-number")
	b.UpdateFromResponse(bad)
	b.UpdateFromResponse(&http.Response{Header: http.Header{}})
	b.UpdateFromResponse(nil)

	if got := b.Remaining(); got != 42 {
		t.Errorf("remaining changed unexpectedly: %d", got)
	}
}

func TestRequestBudget_ExhaustedAllowsSingleProbeAfterReset(t *testing.T) {
	b := NewRequestBudget()
	b.mu.Lock()
	b.remaining = 0
	b.reset = time.Now().Add(-time.Minute)
	b.mu.Unlock()

	// One probe request goes through so the refreshed headers can be observed.
	if err := b.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("probe Acquire failed: %v", err)
	}

	// The next caller blocks until UpdateFromResponse; a canceled context
	// unblocks it with the context error.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Acquire(ctx, 1); err == nil {
		t.Error("expected context error while waiting for refreshed budget")
	}
}

func TestRequestBudget_RetryAfterCoolsDown(t *testing.T) {
	b := NewRequestBudget()
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "30")
	b.UpdateFromResponse(resp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Acquire(ctx, 1); err == nil {
		t.Error("expected context error while cooling down")
	}
}

func TestRequestBudget_UpdateUnblocksWaiter(t *testing.T) {
	b := NewRequestBudget()
	b.mu.Lock()
	b.remaining = 0
	b.reset = time.Now().Add(time.Hour)
	b.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- b.Acquire(ctx, 1)
	}()

	// Give the waiter time to park, then publish fresh budget.
	time.Sleep(50 * time.Millisecond)
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("X-RateLimit-Remaining", "100")
	b.UpdateFromResponse(resp)

	if err := <-done; err != nil {
		t.Fatalf("Acquire should succeed after budget refresh: %v", err)
	}
	if got := b.Remaining(); got != 99 {
		t.Errorf("want remaining 99, got %d", got)
	}
}
