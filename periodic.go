package throttle

import (
	"context"

	"github.com/go-throttle/throttle/store"
)

// PeriodicLimiter is the fixed-window algorithm: a key's bucket resets
// entirely once quota.Period has elapsed since it was created.
type PeriodicLimiter struct {
	store store.Store
}

// NewPeriodicLimiter creates a PeriodicLimiter backed by s.
func NewPeriodicLimiter(s store.Store) *PeriodicLimiter {
	return &PeriodicLimiter{store: s}
}

func (p *PeriodicLimiter) RateLimit(ctx context.Context, key string, qty int64, quota Quota) (Result, error) {
	now, err := p.store.CurrentTime(ctx)
	if err != nil {
		return Result{}, err
	}

	old, err := p.store.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}

	windowStart := now
	if old != nil {
		windowStart = old.CreatedAt
	}
	elapsed := now.Sub(windowStart)

	if elapsed < quota.Period && old != nil && (old.Remaining == 0 || old.Remaining < qty) {
		resetAfter := quota.Period - elapsed
		return Result{
			Limit:      quota.Count,
			Limited:    true,
			Remaining:  old.Remaining,
			ResetAfter: resetAfter,
			RetryAfter: resetAfter,
		}, nil
	}

	if elapsed > quota.Period || old == nil {
		fresh := store.LimitData{Used: qty, Remaining: quota.Limit() - qty, CreatedAt: now}
		stored, err := p.store.Set(ctx, key, fresh)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Limit:      quota.Count,
			Limited:    false,
			Remaining:  stored.Remaining,
			ResetAfter: quota.Period,
			RetryAfter: undefinedDuration,
		}, nil
	}

	updated := old.WithUsedRemaining(old.Used+qty, old.Remaining-qty)
	stored, err := p.store.CompareAndSwap(ctx, key, old, updated)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Limit:      quota.Count,
		Limited:    false,
		Remaining:  stored.Remaining,
		ResetAfter: quota.Period - elapsed,
		RetryAfter: undefinedDuration,
	}, nil
}

func (p *PeriodicLimiter) Reset(ctx context.Context, key string, quota Quota) (Result, error) {
	now, err := p.store.CurrentTime(ctx)
	if err != nil {
		return Result{}, err
	}

	fresh := store.LimitData{Used: 0, Remaining: quota.Limit(), CreatedAt: now}
	if _, err := p.store.Set(ctx, key, fresh); err != nil {
		return Result{}, err
	}

	return Result{
		Limit:      quota.Count,
		Limited:    false,
		Remaining:  quota.Limit(),
		ResetAfter: quota.Period,
		RetryAfter: undefinedDuration,
	}, nil
}
