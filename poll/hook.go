package poll

import (
	"context"
	"errors"
	"sync"
	"time"
)

// GateState defines a public type used by goSession APIs.
//
// GateState instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GateState int

const (
	// GatePending holds the timer: the permission resolver has not finished
	// loading, so the hook must not start fetching yet.
	GatePending GateState = iota
	// GateAllowed permits the fetch.
	GateAllowed
	// GateDenied halts the hook permanently.
	GateDenied
)

// FetchFunc is the asynchronous fetch a hook repeats on its timer.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// GateFunc classifies whether the hook may poll right now.
type GateFunc func(ctx context.Context) GateState

// Hook defines a public type used by goSession APIs.
//
// A Hook owns one piece of polled state. Timer refreshes and manual refreshes
// may overlap freely; the epoch discipline guarantees only the most recently
// issued request mutates the visible value.
type Hook[T any] struct {
	fetch    FetchFunc[T]
	gate     GateFunc
	interval time.Duration

	mu      sync.Mutex
	epoch   uint64
	stopped bool
	started bool
	value   T
	err     error

	halt     chan struct{}
	haltOnce sync.Once
	wg       sync.WaitGroup
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New[T any](fetch FetchFunc[T], interval time.Duration) (*Hook[T], error) {
	if fetch == nil {
		return nil, errors.New("hook requires a fetch function")
	}
	if interval <= 0 {
		return nil, errors.New("hook interval must be positive")
	}
	return &Hook[T]{
		fetch:    fetch,
		interval: interval,
		halt:     make(chan struct{}),
	}, nil
}

// WithGate attaches a permission predicate. Must be called before Start.
func (h *Hook[T]) WithGate(gate GateFunc) *Hook[T] {
	h.gate = gate
	return h
}

// Refresh issues one fetch under the epoch discipline. Safe to call from any
// goroutine, including concurrently with the timer loop; whichever call was
// issued last wins, regardless of response arrival order.
func (h *Hook[T]) Refresh(ctx context.Context) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.epoch++
	epoch := h.epoch
	h.mu.Unlock()

	value, err := h.fetch(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped || epoch != h.epoch {
		// Superseded by a newer request or the hook was torn down.
		return
	}
	if err != nil {
		var zero T
		h.value = zero
		h.err = err
		return
	}
	h.value = value
	h.err = nil
}

// Start launches the timer loop: one immediate refresh, then one per
// interval, until the context is cancelled, Stop is called, or the gate
// denies. Starting twice is a no-op.
func (h *Hook[T]) Start(ctx context.Context) {
	h.mu.Lock()
	if h.started || h.stopped {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	h.wg.Add(1)
	go h.run(ctx)
}

func (h *Hook[T]) run(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if !h.tick(ctx) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			h.markStopped()
			return
		case <-h.halt:
			return
		case <-ticker.C:
			if !h.tick(ctx) {
				return
			}
		}
	}
}

// tick applies the gate and fetches when allowed. Returns false when the loop
// must halt.
func (h *Hook[T]) tick(ctx context.Context) bool {
	if h.gate != nil {
		switch h.gate(ctx) {
		case GatePending:
			return true
		case GateDenied:
			h.markStopped()
			h.haltOnce.Do(func() { close(h.halt) })
			return false
		}
	}
	h.Refresh(ctx)
	return true
}

func (h *Hook[T]) markStopped() {
	h.mu.Lock()
	h.stopped = true
	h.mu.Unlock()
}

// Stop halts the timer and bars any in-flight response from mutating state.
// Idempotent; blocks until the timer goroutine has exited.
func (h *Hook[T]) Stop() {
	h.markStopped()
	h.haltOnce.Do(func() { close(h.halt) })
	h.wg.Wait()
}

// Value returns the current snapshot: the last applied result and the error
// flag from the last applied fetch. A fetch error leaves the zero value with
// the error set; the next scheduled poll retries.
func (h *Hook[T]) Value() (T, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value, h.err
}

// Err returns the error flag from the last applied fetch.
//
// Err does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (h *Hook[T]) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Epoch exposes the current request epoch, for observability.
//
// Epoch does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (h *Hook[T]) Epoch() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.epoch
}

// Stopped reports whether the hook has been torn down.
//
// Stopped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (h *Hook[T]) Stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}
