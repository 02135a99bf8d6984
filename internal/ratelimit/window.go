// Package ratelimit implements sliding-window admission control for the
// provider's account quota. x/time/rate's token bucket allows edge bursts
// that exceed a trailing-window cap, so admissions are tracked explicitly.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// SlidingWindow admits at most maxPerWindow events in any trailing window.
type SlidingWindow struct {
	mu         sync.Mutex
	max        int
	window     time.Duration
	admissions []time.Time // FIFO of admission timestamps
	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) error
}

// New creates a SlidingWindow limiter.
func New(maxPerWindow int, window time.Duration) *SlidingWindow {
	if maxPerWindow < 1 {
		maxPerWindow = 1
	}
	return &SlidingWindow{
		max:    maxPerWindow,
		window: window,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Acquire blocks until an admission slot is free, then records the
// admission. Returns early only on context cancellation.
func (w *SlidingWindow) Acquire(ctx context.Context) error {
	for {
		wait, ok := w.tryAdmit()
		if ok {
			return nil
		}
		if err := w.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryAdmit evicts expired timestamps and either admits immediately or
// returns how long until the oldest admission leaves the window. The sleep
// happens outside the lock so concurrent callers serialize only on the
// brief eviction+insert.
func (w *SlidingWindow) tryAdmit() (time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.admissions) && !w.admissions[i].After(cutoff) {
		i++
	}
	w.admissions = w.admissions[i:]

	if len(w.admissions) < w.max {
		w.admissions = append(w.admissions, now)
		return 0, true
	}

	wait := w.window - now.Sub(w.admissions[0])
	if wait < 0 {
		wait = 0
	}
	return wait, false
}

// Pending returns the number of admissions currently inside the window.
func (w *SlidingWindow) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-w.window)
	n := 0
	for _, t := range w.admissions {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// Yield so a raced slot can be re-checked without spinning hot.
		d = time.Millisecond
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
