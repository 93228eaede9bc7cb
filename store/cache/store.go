// Package cache is a bounded in-process Store: the same CAS contract as
// memory.Store, plus a maximum entry count and a time-to-live. Eviction is
// least-recently-used among non-expired entries; expired entries are purged
// lazily on access plus a background sweep.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/go-throttle/throttle/store"
)

// Option configures a Store.
type Option func(*config)

type config struct {
	ttl     time.Duration
	maxSize int
}

// WithTTL sets how long an entry survives without being touched. Default
// 10 minutes.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) { c.ttl = ttl }
}

// WithMaxSize caps the number of resident keys. When exceeded, the least
// recently used entry is evicted. Default 100000.
func WithMaxSize(maxSize int) Option {
	return func(c *config) { c.maxSize = maxSize }
}

type entry struct {
	data       store.LimitData
	lastAccess time.Time
}

// Store is a bounded, TTL-evicting Store implementation.
type Store struct {
	cfg     config
	mu      sync.Mutex
	entries map[string]*entry
	closeCh chan struct{}
	closed  bool
}

// New creates a bounded Store. Call Close to stop its background sweep
// goroutine when the store is no longer needed.
func New(opts ...Option) *Store {
	cfg := config{
		ttl:     10 * time.Minute,
		maxSize: 100000,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Store{
		cfg:     cfg,
		entries: make(map[string]*entry),
		closeCh: make(chan struct{}),
	}
	go s.evictionLoop()
	return s
}

// Close stops the background eviction goroutine.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.closeCh)
	}
}

func (s *Store) isExpired(e *entry, now time.Time) bool {
	return now.Sub(e.lastAccess) >= s.cfg.ttl
}

func (s *Store) Get(ctx context.Context, key string) (*store.LimitData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	now := time.Now()
	if s.isExpired(e, now) {
		delete(s.entries, key)
		return nil, nil
	}
	e.lastAccess = now
	cp := e.data
	return &cp, nil
}

func (s *Store) Set(ctx context.Context, key string, data store.LimitData) (store.LimitData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &entry{data: data, lastAccess: time.Now()}
	s.evictIfOverCapacity()
	return data, nil
}

func (s *Store) CompareAndSwap(ctx context.Context, key string, old *store.LimitData, new store.LimitData) (store.LimitData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	e, ok := s.entries[key]
	if ok && s.isExpired(e, now) {
		delete(s.entries, key)
		ok = false
	}

	if old == nil {
		if ok {
			cp := e.data
			return store.LimitData{}, &store.CompareAndSwapError{Key: key, Observed: &cp}
		}
	} else {
		if !ok || !e.data.Equal(*old) {
			var observed *store.LimitData
			if ok {
				cp := e.data
				observed = &cp
			}
			return store.LimitData{}, &store.CompareAndSwapError{Key: key, Observed: observed}
		}
	}

	s.entries[key] = &entry{data: new, lastAccess: now}
	s.evictIfOverCapacity()
	return new, nil
}

func (s *Store) CurrentTime(ctx context.Context) (time.Time, error) {
	return time.Now().UTC(), nil
}

func (s *Store) GetWithTime(ctx context.Context, key string, loc *time.Location) (time.Time, *store.LimitData, error) {
	return store.GetWithTime(ctx, s, key, loc)
}

// evictIfOverCapacity assumes s.mu is held. It evicts the single
// least-recently-used entry, matching the teacher's capacity-triggered
// single-eviction approach rather than batch eviction.
func (s *Store) evictIfOverCapacity() {
	if len(s.entries) <= s.cfg.maxSize {
		return
	}
	var oldestKey string
	var oldestTime time.Time
	for k, e := range s.entries {
		if oldestKey == "" || e.lastAccess.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.lastAccess
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}

func (s *Store) evictionLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.closeCh:
			return
		}
	}
}

func (s *Store) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, e := range s.entries {
		if s.isExpired(e, now) {
			delete(s.entries, k)
		}
	}
}
