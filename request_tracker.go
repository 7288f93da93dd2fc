// request_tracker.go: In-flight recognition tracking and graceful draining
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package selectocr

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// RequestTracker counts recognitions that are in flight and lets a caller
// wait for them to finish, for example before closing the page they insert into.
type RequestTracker struct {
	active atomic.Int64

	cancels map[uint64]context.CancelFunc
	nextID  uint64
	mu      sync.Mutex

	metrics MetricsCollector
}

// NewRequestTracker creates a tracker. A nil collector disables metrics.
func NewRequestTracker(metrics MetricsCollector) *RequestTracker {
	return &RequestTracker{
		cancels: make(map[uint64]context.CancelFunc),
		metrics: metrics,
	}
}

// Start registers a recognition and returns a derived context that is
// cancelled by ForceCancel, plus the function that ends tracking.
func (rt *RequestTracker) Start(ctx context.Context) (context.Context, func()) {
	tracked, cancel := context.WithCancel(ctx)

	rt.mu.Lock()
	rt.nextID++
	id := rt.nextID
	rt.cancels[id] = cancel
	rt.mu.Unlock()

	active := rt.active.Add(1)
	rt.recordActive(active)

	var once sync.Once
	return tracked, func() {
		once.Do(func() {
			rt.mu.Lock()
			delete(rt.cancels, id)
			rt.mu.Unlock()
			cancel()
			rt.recordActive(rt.active.Add(-1))
		})
	}
}

// Active returns the number of recognitions in flight.
func (rt *RequestTracker) Active() int64 {
	return rt.active.Load()
}

// WaitForDrain waits until no recognition is in flight. It returns false
// when timeout elapses first.
func (rt *RequestTracker) WaitForDrain(timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if rt.Active() == 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// ForceCancel cancels the contexts of all tracked recognitions and returns
// how many were cancelled.
func (rt *RequestTracker) ForceCancel() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	n := 0
	for id, cancel := range rt.cancels {
		cancel()
		delete(rt.cancels, id)
		n++
	}
	return n
}

// DrainOptions configures GracefulDrain.
type DrainOptions struct {
	// DrainTimeout bounds the wait for in-flight recognitions.
	DrainTimeout time.Duration
	// ForceCancelAfterTimeout cancels what is still running once the timeout elapses.
	ForceCancelAfterTimeout bool
}

// GracefulDrain waits for in-flight recognitions. On timeout it optionally
// cancels the stragglers and returns a *DrainTimeoutError either way.
func (rt *RequestTracker) GracefulDrain(options DrainOptions) error {
	if options.DrainTimeout <= 0 {
		options.DrainTimeout = 30 * time.Second
	}
	if rt.WaitForDrain(options.DrainTimeout) {
		return nil
	}

	pending := rt.Active()
	cancelled := 0
	if options.ForceCancelAfterTimeout {
		cancelled = rt.ForceCancel()
	}
	return &DrainTimeoutError{
		PendingRequests:  pending,
		CancelledContext: cancelled,
		Timeout:          options.DrainTimeout,
	}
}

// DrainTimeoutError reports recognitions still running when a drain gave up.
type DrainTimeoutError struct {
	PendingRequests  int64
	CancelledContext int
	Timeout          time.Duration
}

func (e *DrainTimeoutError) Error() string {
	return fmt.Sprintf("drain timed out after %v with %d recognitions pending (%d cancelled)",
		e.Timeout, e.PendingRequests, e.CancelledContext)
}

func (rt *RequestTracker) recordActive(active int64) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.SetGauge(MetricActiveRecognitions, nil, float64(active))
}
