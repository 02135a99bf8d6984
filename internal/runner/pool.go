package runner

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// ErrDeadline is returned by a work function to signal that the soft
// deadline passed mid-item (e.g. after a long rate-limiter wait). The pool
// treats it as a pause, not a failure.
var ErrDeadline = eris.New("runner: soft deadline exceeded")

// runPool drives items through perItem with bounded concurrency. Runners
// pull from a shared cursor so no item is processed twice in one run.
// Before each claim the guard is checked; once it expires runners stop
// claiming and the pool reports paused with however many items completed.
// perItem must finish the item's persistence before returning; that
// ordering is what makes resumption lose at most the in-flight items.
func runPool[T any](ctx context.Context, guard *DeadlineGuard, concurrency int, items []T, perItem func(ctx context.Context, item T) error) (processed int, paused bool, err error) {
	if len(items) == 0 {
		return 0, false, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}

	var cursor, done atomic.Int64
	var pausedFlag atomic.Bool

	g, gctx := errgroup.WithContext(ctx)
	for range concurrency {
		g.Go(func() error {
			for {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if guard.Expired() {
					pausedFlag.Store(true)
					return nil
				}

				idx := cursor.Add(1) - 1
				if idx >= int64(len(items)) {
					return nil
				}

				if err := perItem(gctx, items[idx]); err != nil {
					if errors.Is(err, ErrDeadline) {
						pausedFlag.Store(true)
						return nil
					}
					return err
				}
				done.Add(1)
			}
		})
	}

	if err := g.Wait(); err != nil {
		return int(done.Load()), pausedFlag.Load(), err
	}
	return int(done.Load()), pausedFlag.Load(), nil
}
