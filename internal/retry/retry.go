// Package retry provides the bounded attempt/poll primitives used around
// provider calls, with an injectable sleep so tests can run on a virtual
// clock.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrBudgetExceeded is returned by Poll when the wall-clock budget runs out
// before the condition becomes ready.
var ErrBudgetExceeded = errors.New("poll budget exceeded")

// Sleeper waits for d or until ctx is done. The default implementation uses
// a real timer.
type Sleeper func(ctx context.Context, d time.Duration) error

func realSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs fn up to attempts times, pausing delay between failures. A nil
// error stops immediately. fn reports retryable=false to abort without
// consuming the remaining attempts (validation failures must not be
// retried). The last error is returned after exhaustion.
func Do(ctx context.Context, attempts int, delay time.Duration, sleep Sleeper, fn func() (retryable bool, err error)) error {
	if attempts <= 0 {
		attempts = 1
	}
	if sleep == nil {
		sleep = realSleep
	}

	var last error
	for i := 0; i < attempts; i++ {
		retryable, err := fn()
		if err == nil {
			return nil
		}
		last = err
		if !retryable {
			return err
		}
		if i < attempts-1 {
			if serr := sleep(ctx, delay); serr != nil {
				return last
			}
		}
	}
	return last
}

// Poll invokes fn every interval until it reports ready, fails, or budget of
// wall-clock time elapses. A not-ready poll is not an error. On budget
// exhaustion ErrBudgetExceeded is returned so the caller can degrade rather
// than hang.
func Poll(ctx context.Context, interval, budget time.Duration, sleep Sleeper, now func() time.Time, fn func() (ready bool, err error)) error {
	if sleep == nil {
		sleep = realSleep
	}
	if now == nil {
		now = time.Now
	}

	deadline := now().Add(budget)
	for {
		ready, err := fn()
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		if !now().Add(interval).Before(deadline) {
			return ErrBudgetExceeded
		}
		if serr := sleep(ctx, interval); serr != nil {
			return serr
		}
	}
}
