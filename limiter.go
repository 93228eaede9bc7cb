package throttle

import "context"

// Limiter decides whether qty units of traffic fit within quota for key,
// consulting and updating a Store. A single Limiter instance is expected to
// serve many distinct keys and, via the quota parameter, many distinct
// quotas — the quota is never baked into the limiter itself.
type Limiter interface {
	// RateLimit evaluates a request of cost qty against quota for key. A
	// qty of 0 peeks at the current state without consuming capacity.
	RateLimit(ctx context.Context, key string, qty int64, quota Quota) (Result, error)
	// Reset clears key's state back to a fresh, fully-available bucket.
	Reset(ctx context.Context, key string, quota Quota) (Result, error)
}
