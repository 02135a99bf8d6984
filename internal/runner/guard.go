package runner

import "time"

// DeadlineGuard tracks elapsed wall-clock time against the platform's
// execution cap. It is cooperative: it only stops new work from starting,
// an in-flight call can overrun the soft threshold because the platform's
// hard timeout is the true backstop.
type DeadlineGuard struct {
	start time.Time
	soft  time.Duration
	now   func() time.Time
}

// NewGuard derives the soft threshold as hard minus overhead. A
// non-positive result falls back to half the hard timeout.
func NewGuard(hard, overhead time.Duration) *DeadlineGuard {
	soft := hard - overhead
	if soft <= 0 {
		soft = hard / 2
	}
	return &DeadlineGuard{
		start: time.Now(),
		soft:  soft,
		now:   time.Now,
	}
}

// Expired reports whether the soft threshold has passed.
func (g *DeadlineGuard) Expired() bool {
	return g.now().Sub(g.start) >= g.soft
}

// Remaining returns the time left before the soft threshold, floored at 0.
func (g *DeadlineGuard) Remaining() time.Duration {
	rem := g.soft - g.now().Sub(g.start)
	if rem < 0 {
		return 0
	}
	return rem
}
