package throttle

import "context"

// Throttle binds an immutable Quota to a Limiter, giving callers a simple
// per-key decision surface without having to pass the quota on every call.
type Throttle struct {
	quota   Quota
	limiter Limiter
}

// NewThrottle binds quota to limiter.
func NewThrottle(quota Quota, limiter Limiter) *Throttle {
	return &Throttle{quota: quota, limiter: limiter}
}

// Check evaluates a request of cost qty against key.
func (t *Throttle) Check(ctx context.Context, key string, qty int64) (Result, error) {
	return t.limiter.RateLimit(ctx, key, qty, t.quota)
}

// Peek reports key's current state without consuming capacity.
func (t *Throttle) Peek(ctx context.Context, key string) (Result, error) {
	return t.limiter.RateLimit(ctx, key, 0, t.quota)
}

// Clear resets key back to a fresh, fully-available bucket.
func (t *Throttle) Clear(ctx context.Context, key string) (Result, error) {
	return t.limiter.Reset(ctx, key, t.quota)
}
