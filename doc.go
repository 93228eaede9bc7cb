// Package throttle is a rate-limiting decision engine: give it a Quota
// and a key, it tells you whether the request fits.
//
// # Algorithms
//
//   - PeriodicLimiter — fixed-window counter, keyed off the quota's period
//   - GCRALimiter — Generic Cell Rate Algorithm, a continuous-time
//     token bucket with an optional burst allowance
//
// # Quick Start
//
//	s := memory.New()
//	quota, _ := throttle.PerMinute(60)
//	limiter := throttle.NewGCRALimiter(s)
//	t := throttle.NewThrottle(quota, limiter)
//
//	result, err := t.Check(ctx, "user:123", 1)
//	if result.Limited {
//	    // reject, retry after result.RetryAfter
//	}
//
// # With Redis
//
//	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
//	s := rediskv.New(client)
//	limiter := throttle.NewGCRALimiter(s)
//
// Both limiters are parameterized on a [store.Store]: store/memory for
// single-process use, store/cache for a bounded in-process cache, and
// store/rediskv for a shared backend that coordinates across processes.
// GCRALimiter runs check/apply as a single atomic Redis script when the
// store supports it, and falls back to the generic Get/CompareAndSwap
// path otherwise.
package throttle
