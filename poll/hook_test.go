package poll

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewValidation(t *testing.T) {
	if _, err := New[string](nil, time.Second); err == nil {
		t.Fatal("expected error for nil fetch")
	}
	if _, err := New(func(ctx context.Context) (string, error) { return "", nil }, 0); err == nil {
		t.Fatal("expected error for non-positive interval")
	}
}

func TestRefreshAppliesResult(t *testing.T) {
	h, err := New(func(ctx context.Context) (int, error) { return 42, nil }, time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	h.Refresh(context.Background())

	v, verr := h.Value()
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
	if h.Epoch() != 1 {
		t.Fatalf("expected epoch 1, got %d", h.Epoch())
	}
}

func TestRefreshErrorClearsValueAndRetrySucceeds(t *testing.T) {
	fail := atomic.Bool{}
	fail.Store(true)
	h, err := New(func(ctx context.Context) (int, error) {
		if fail.Load() {
			return 0, errors.New("backend down")
		}
		return 7, nil
	}, time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	h.Refresh(context.Background())
	if _, verr := h.Value(); verr == nil {
		t.Fatal("expected error after failed fetch")
	}

	fail.Store(false)
	h.Refresh(context.Background())
	v, verr := h.Value()
	if verr != nil {
		t.Fatalf("expected error cleared, got %v", verr)
	}
	if v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}
}

func TestRefreshLatestRequestWins(t *testing.T) {
	type inflight struct {
		value   string
		release chan struct{}
	}
	started := make(chan inflight, 2)
	var seq atomic.Uint64
	fetch := func(ctx context.Context) (string, error) {
		f := inflight{
			value:   fmt.Sprintf("result-%d", seq.Add(1)),
			release: make(chan struct{}),
		}
		started <- f
		<-f.release
		return f.value, nil
	}

	h, err := New(fetch, time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.Refresh(context.Background())
	}()
	first := <-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.Refresh(context.Background())
	}()
	second := <-started

	// Let the newer request land first, then the stale one.
	close(second.release)
	close(first.release)
	wg.Wait()

	v, verr := h.Value()
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if v != second.value {
		t.Fatalf("expected %q to win, got %q", second.value, v)
	}
}

func TestStopBarsInflightWrite(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	h, err := New(func(ctx context.Context) (string, error) {
		close(entered)
		<-release
		return "late", nil
	}, time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		h.Refresh(context.Background())
		close(done)
	}()
	<-entered

	h.Stop()
	close(release)
	<-done

	if !h.Stopped() {
		t.Fatal("expected hook stopped")
	}
	v, _ := h.Value()
	if v != "" {
		t.Fatalf("expected no write after stop, got %q", v)
	}
}

func TestGatePendingHoldsFetch(t *testing.T) {
	var fetches atomic.Uint64
	state := atomic.Int64{}
	state.Store(int64(GatePending))

	h, err := New(func(ctx context.Context) (int, error) {
		fetches.Add(1)
		return 1, nil
	}, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	h.WithGate(func(ctx context.Context) GateState { return GateState(state.Load()) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx)
	defer h.Stop()

	time.Sleep(30 * time.Millisecond)
	if n := fetches.Load(); n != 0 {
		t.Fatalf("expected no fetches while pending, got %d", n)
	}

	state.Store(int64(GateAllowed))
	deadline := time.After(2 * time.Second)
	for fetches.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for fetch after gate allowed")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestGateDeniedStopsPermanently(t *testing.T) {
	var fetches atomic.Uint64
	h, err := New(func(ctx context.Context) (int, error) {
		fetches.Add(1)
		return 1, nil
	}, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	h.WithGate(func(ctx context.Context) GateState { return GateDenied })

	h.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for !h.Stopped() {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for denial to stop the hook")
		case <-time.After(time.Millisecond):
		}
	}
	if n := fetches.Load(); n != 0 {
		t.Fatalf("expected no fetches under denial, got %d", n)
	}

	// A manual refresh after denial must be a no-op.
	h.Refresh(context.Background())
	if v, _ := h.Value(); v != 0 {
		t.Fatalf("expected no value after denial, got %d", v)
	}
}

func TestContextCancelStopsLoop(t *testing.T) {
	h, err := New(func(ctx context.Context) (int, error) { return 1, nil }, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.Start(ctx)
	cancel()

	deadline := time.After(2 * time.Second)
	for !h.Stopped() {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for cancellation to stop the hook")
		case <-time.After(time.Millisecond):
		}
	}
	h.Stop()
}

func TestStopIsIdempotent(t *testing.T) {
	h, err := New(func(ctx context.Context) (int, error) { return 1, nil }, time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	h.Start(context.Background())
	h.Stop()
	h.Stop()
	if !h.Stopped() {
		t.Fatal("expected hook stopped")
	}
}
