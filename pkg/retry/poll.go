// Package retry runs a readiness check a bounded number of times.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned when the condition never became true within the
// attempt budget.
var ErrExhausted = errors.New("retry budget exhausted")

// Policy is a fixed delay between attempts and a fixed attempt budget.
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPolicy polls once a second for up to a minute.
var DefaultPolicy = Policy{Interval: time.Second, MaxAttempts: 60}

// Condition reports whether the awaited state has been reached. A non-nil
// error stops polling immediately.
type Condition func(ctx context.Context) (done bool, err error)

// Poll calls cond until it reports done, it fails, ctx ends or the attempt
// budget runs out. There is no delay before the first attempt or after the
// last one.
func Poll(ctx context.Context, policy Policy, cond Condition) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for attempt := 1; ; attempt++ {
		done, err := cond(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if attempt >= attempts {
			return fmt.Errorf("%w after %d attempts", ErrExhausted, attempts)
		}

		if timer == nil {
			timer = time.NewTimer(policy.Interval)
		} else {
			timer.Reset(policy.Interval)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}
