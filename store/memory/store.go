// Package memory is the reference Store implementation: a mutex-guarded
// map with no eviction, suitable for single-process use and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/go-throttle/throttle/store"
)

// Store is a Store backed by a plain map protected by a mutex. The backing
// map is owned exclusively by Store; every access flows through its
// mutex-guarded methods, never aliased externally.
type Store struct {
	mu   sync.Mutex
	data map[string]store.LimitData
}

// New creates an empty in-memory Store.
func New() *Store {
	return &Store{data: make(map[string]store.LimitData)}
}

func (s *Store) Get(ctx context.Context, key string) (*store.LimitData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	cp := d
	return &cp, nil
}

func (s *Store) Set(ctx context.Context, key string, data store.LimitData) (store.LimitData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = data
	return data, nil
}

func (s *Store) CompareAndSwap(ctx context.Context, key string, old *store.LimitData, new store.LimitData) (store.LimitData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.data[key]
	if old == nil {
		if ok {
			cp := current
			return store.LimitData{}, &store.CompareAndSwapError{Key: key, Observed: &cp}
		}
	} else {
		if !ok || !current.Equal(*old) {
			var observed *store.LimitData
			if ok {
				cp := current
				observed = &cp
			}
			return store.LimitData{}, &store.CompareAndSwapError{Key: key, Observed: observed}
		}
	}

	s.data[key] = new
	return new, nil
}

func (s *Store) CurrentTime(ctx context.Context) (time.Time, error) {
	return time.Now().UTC(), nil
}

func (s *Store) GetWithTime(ctx context.Context, key string, loc *time.Location) (time.Time, *store.LimitData, error) {
	return store.GetWithTime(ctx, s, key, loc)
}
