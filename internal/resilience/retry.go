package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Outcome classifies an error for the retry loop.
type Outcome int

const (
	// OutcomeRetry means wait and retry the same call.
	OutcomeRetry Outcome = iota
	// OutcomeDrop means an input item is permanently invalid; the caller
	// should shrink the batch and retry without counting an attempt.
	OutcomeDrop
	// OutcomeFatal means the call failed structurally; do not retry.
	OutcomeFatal
)

// Policy is the shared retry configuration for provider calls.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay scales linearly with the attempt number:
	// delay = BaseDelay * (attempt + 1) + jitter.
	BaseDelay time.Duration

	// Jitter is the maximum random addition to each delay, spreading out
	// herds of simultaneous retries.
	Jitter time.Duration

	// Classify maps an error to an Outcome. Nil means ClassifyDefault.
	Classify func(err error) Outcome

	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy returns the retry policy used for provider batch calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		Jitter:     500 * time.Millisecond,
	}
}

// ClassifyDefault routes throttling to retry, per-item rejections to drop,
// and everything else to fatal.
func ClassifyDefault(err error) Outcome {
	if _, ok := AsInvalidItem(err); ok {
		return OutcomeDrop
	}
	if IsThrottled(err) {
		return OutcomeRetry
	}
	return OutcomeFatal
}

// DoVal executes fn under the policy. Throttled calls are retried with a
// linearly growing, jittered delay; exhausting retries yields a hard error
// naming the call context. Drop and fatal outcomes return immediately so
// the caller can shrink the batch or propagate.
func DoVal[T any](ctx context.Context, p Policy, callCtx string, fn func(ctx context.Context) (T, error)) (T, error) {
	classify := p.Classify
	if classify == nil {
		classify = ClassifyDefault
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, lastErr
		}

		if classify(err) != OutcomeRetry {
			return zero, err
		}

		if attempt >= p.MaxRetries {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, eris.Wrapf(lastErr, "%s: rate limited after %d attempts", callCtx, p.MaxRetries+1)
}

func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay * time.Duration(attempt+1)
	if p.Jitter > 0 {
		d += time.Duration(rand.Int64N(int64(p.Jitter)))
	}
	return d
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(service, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
