// Package decorator is a thin adapter that throttles a function call
// through a *throttle.Throttle, rather than requiring callers to invoke
// Check/Peek/Clear by hand around every call site.
package decorator

import (
	"context"
	"fmt"
	"time"

	"github.com/go-throttle/throttle"
)

// ThrottleExceededError is raised when a throttled call is rejected. It
// carries the Result so callers can inspect RetryAfter.
type ThrottleExceededError struct {
	Result throttle.Result
}

func (e *ThrottleExceededError) Error() string {
	return fmt.Sprintf("decorator: rate-limit exceeded, retry after %s", e.Result.RetryAfter)
}

// Call checks key against t and, if admitted, invokes fn. If the call is
// rejected, fn is never invoked and *ThrottleExceededError is returned.
func Call(ctx context.Context, t *throttle.Throttle, key string, fn func() error) error {
	result, err := t.Check(ctx, key, 1)
	if err != nil {
		return err
	}
	if result.Limited {
		return &ThrottleExceededError{Result: result}
	}
	return fn()
}

// SleepAndRetry calls fn through t, and on rejection sleeps for
// Result.RetryAfter before trying again. It is intentionally naive: no
// jitter, no backoff, no maximum attempt count, matching the reference
// decorator this is ported from.
func SleepAndRetry(ctx context.Context, t *throttle.Throttle, key string, fn func() error) error {
	for {
		err := Call(ctx, t, key, fn)
		exceeded, ok := err.(*ThrottleExceededError)
		if !ok {
			return err
		}

		wait := exceeded.Result.RetryAfter
		if wait < 0 {
			wait = 0
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
