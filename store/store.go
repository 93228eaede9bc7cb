// Package store defines the key-value contract rate limiters persist their
// bucket state through, plus three implementations: an in-memory reference
// store, a bounded in-process cache, and a Redis-backed shared store.
package store

import (
	"context"
	"time"
)

// Store maps string keys to LimitData with an atomic compare-and-swap
// protocol and an authoritative clock. Implementations must guarantee:
//  1. Get never partially observes a Set or successful CompareAndSwap.
//  2. A successful CompareAndSwap is linearizable with respect to other
//     CompareAndSwap calls on the same key.
//  3. Timestamps stored and returned are timezone-aware (UTC).
type Store interface {
	// Get returns the current state for key, or nil if absent.
	Get(ctx context.Context, key string) (*LimitData, error)
	// Set unconditionally writes data and returns the stored value.
	Set(ctx context.Context, key string, data LimitData) (LimitData, error)
	// CompareAndSwap writes new iff the store's current value for key
	// equals old (a nil old matches an absent key). On mismatch it returns
	// *CompareAndSwapError carrying the observed value. On a detected
	// concurrent writer it returns *ConcurrentMutationError.
	CompareAndSwap(ctx context.Context, key string, old *LimitData, new LimitData) (LimitData, error)
	// CurrentTime returns the store's authoritative clock. Shared stores
	// should use the backing service's own clock so every process agrees.
	CurrentTime(ctx context.Context) (time.Time, error)
	// GetWithTime returns (current_time, get(key)) in a single call,
	// converting the timestamp into loc (UTC if loc is nil).
	GetWithTime(ctx context.Context, key string, loc *time.Location) (time.Time, *LimitData, error)
}

// GetWithTime implements Store.GetWithTime in terms of Get and CurrentTime,
// so that a backend's GetWithTime method can be a one-line delegation to
// this helper. A backend with a cheaper combined path (e.g. a single round
// trip) may implement the method directly instead of calling this helper.
func GetWithTime(ctx context.Context, s Store, key string, loc *time.Location) (time.Time, *LimitData, error) {
	now, err := s.CurrentTime(ctx)
	if err != nil {
		return time.Time{}, nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	data, err := s.Get(ctx, key)
	if err != nil {
		return time.Time{}, nil, err
	}
	if data != nil && data.Time == nil {
		t := now
		data = &LimitData{Used: data.Used, Remaining: data.Remaining, CreatedAt: data.CreatedAt, Time: &t}
	} else if data != nil {
		t := data.Time.In(loc)
		data = &LimitData{Used: data.Used, Remaining: data.Remaining, CreatedAt: data.CreatedAt, Time: &t}
	}
	return now, data, nil
}
