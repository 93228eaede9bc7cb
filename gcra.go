package throttle

import (
	"context"
	"math"
	"time"

	"github.com/go-throttle/throttle/store"
	"github.com/go-throttle/throttle/store/rediskv"
)

// GCRALimiter implements the Generic Cell Rate Algorithm: a continuous-time
// leaky bucket expressed as a single monotonically advancing Theoretical
// Arrival Time (TAT) per key.
//
// When the configured store also implements rediskv.ScriptRunner, RateLimit
// runs the whole decision as one atomic Redis script instead of a generic
// Get+CompareAndSwap round trip — the same optimization pattern io.Copy
// uses to detect io.ReaderFrom/io.WriterTo before falling back to a generic
// loop.
type GCRALimiter struct {
	store store.Store
}

// NewGCRALimiter creates a GCRALimiter backed by s.
func NewGCRALimiter(s store.Store) *GCRALimiter {
	return &GCRALimiter{store: s}
}

func (g *GCRALimiter) RateLimit(ctx context.Context, key string, qty int64, quota Quota) (Result, error) {
	limit := quota.Limit()
	emissionIntervalSec := quota.Period.Seconds() / float64(limit)
	incrementSec := emissionIntervalSec * float64(qty)
	dvtSec := emissionIntervalSec * float64(limit)

	if runner, ok := g.store.(rediskv.ScriptRunner); ok {
		limited, remaining, retryAfter, resetAfter, err := runner.EvalGCRA(ctx, key, emissionIntervalSec, dvtSec, incrementSec, qty)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Limit:      quota.Count,
			Limited:    limited,
			Remaining:  remaining,
			ResetAfter: resetAfter,
			RetryAfter: retryAfter,
		}, nil
	}

	return g.rateLimitGeneric(ctx, key, qty, quota)
}

func (g *GCRALimiter) rateLimitGeneric(ctx context.Context, key string, qty int64, quota Quota) (Result, error) {
	limit := quota.Limit()
	emissionInterval := quota.Period / time.Duration(limit)
	increment := emissionInterval * time.Duration(qty)
	dvt := emissionInterval * time.Duration(limit)

	now, err := g.store.CurrentTime(ctx)
	if err != nil {
		return Result{}, err
	}

	old, err := g.store.Get(ctx, key)
	if err != nil {
		return Result{}, err
	}

	tat := now
	createdAt := now
	if old != nil {
		createdAt = old.CreatedAt
		if old.Time != nil {
			tat = *old.Time
		}
	}

	base := tat
	if now.After(base) {
		base = now
	}
	newTat := base.Add(increment)
	allowAt := newTat.Add(-dvt)
	diff := now.Sub(allowAt)

	remainingF := float64(diff)/float64(emissionInterval) + 0.5
	remaining := int64(math.Floor(remainingF))

	resetAfter := tat.Sub(now)
	if resetAfter == 0 {
		resetAfter = undefinedDuration
	}

	var writeTat time.Time
	var limited bool
	var retryAfter time.Duration

	if remaining < 1 {
		limited = true
		remaining = 0
		retryAfter = emissionInterval - diff
		writeTat = tat
	} else {
		limited = false
		retryAfter = undefinedDuration
		writeTat = newTat
	}

	newData := store.LimitData{
		Used:      limit - remaining,
		Remaining: remaining,
		CreatedAt: createdAt,
	}
	newData = newData.WithTime(writeTat)

	if _, err := g.store.CompareAndSwap(ctx, key, old, newData); err != nil {
		return Result{}, err
	}

	return Result{
		Limit:      quota.Count,
		Limited:    limited,
		Remaining:  remaining,
		ResetAfter: resetAfter,
		RetryAfter: retryAfter,
	}, nil
}

func (g *GCRALimiter) Reset(ctx context.Context, key string, quota Quota) (Result, error) {
	now, err := g.store.CurrentTime(ctx)
	if err != nil {
		return Result{}, err
	}

	if resetter, ok := g.store.(rediskv.ScriptResetter); ok {
		if err := resetter.ResetGCRA(ctx, key); err != nil {
			return Result{}, err
		}
	}

	past := now.Add(-2 * quota.Period)
	fresh := store.LimitData{Used: 0, Remaining: quota.Limit(), CreatedAt: now}
	fresh = fresh.WithTime(past)

	if _, err := g.store.Set(ctx, key, fresh); err != nil {
		return Result{}, err
	}

	return Result{
		Limit:      quota.Count,
		Limited:    false,
		Remaining:  quota.Limit(),
		ResetAfter: undefinedDuration,
		RetryAfter: undefinedDuration,
	}, nil
}
