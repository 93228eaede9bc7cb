// Package rediskv is the shared remote Store: state lives in Redis, CAS is
// implemented with WATCH/MULTI/EXEC optimistic concurrency, and the clock is
// Redis's own TIME command so every process agrees on "now".
package rediskv

import (
	"context"
	"fmt"
	"net/url"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/go-throttle/throttle/store"
)

// Store implements store.Store backed by goredis.UniversalClient, which
// supports standalone Redis, Redis Cluster, Ring, and Sentinel alike.
type Store struct {
	client goredis.UniversalClient
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix namespaces every Redis key the store touches.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Store from an already-constructed client.
func New(client goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromURL parses rawURL and dials a client from it. The scheme must be
// "redis" (standalone, the primary scheme), "rediss" (TLS), or "unix"
// (unix-domain socket); any other scheme, or a missing scheme, fails with
// *store.InvalidStoreURLError carrying the offending string.
func NewFromURL(rawURL string, opts ...Option) (*Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &store.InvalidStoreURLError{URL: rawURL, Detail: err.Error()}
	}
	switch u.Scheme {
	case "redis", "rediss", "unix":
	case "":
		return nil, &store.InvalidStoreURLError{URL: rawURL, Detail: "missing scheme"}
	default:
		return nil, &store.InvalidStoreURLError{URL: rawURL, Detail: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}

	options, err := goredis.ParseURL(normalizeForGoRedis(rawURL, u))
	if err != nil {
		return nil, &store.InvalidStoreURLError{URL: rawURL, Detail: err.Error()}
	}
	if u.Scheme == "unix" {
		options.Network = "unix"
		options.Addr = u.Path
	}
	client := goredis.NewClient(options)
	return New(client, opts...), nil
}

// normalizeForGoRedis rewrites a unix URL as a bare redis:// URL so that
// ParseURL does not read the socket path as a database number; NewFromURL
// then sets the unix network and the socket path on the parsed options.
func normalizeForGoRedis(rawURL string, u *url.URL) string {
	if u.Scheme == "unix" {
		return "redis://" + u.Host
	}
	return rawURL
}

func (s *Store) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Client returns the underlying Redis client, for callers that need to
// share a connection pool or wire a ScriptRunner capability elsewhere.
func (s *Store) Client() goredis.UniversalClient {
	return s.client
}

func (s *Store) Get(ctx context.Context, key string) (*store.LimitData, error) {
	fields, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	data, err := store.DecodeLimitData(fields)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (s *Store) Set(ctx context.Context, key string, data store.LimitData) (store.LimitData, error) {
	encoded := data.Encode()
	values := make([]interface{}, 0, len(encoded)*2)
	for k, v := range encoded {
		values = append(values, k, v)
	}
	if err := s.client.HSet(ctx, s.key(key), values...).Err(); err != nil {
		return store.LimitData{}, err
	}
	return data, nil
}

// CompareAndSwap reads the key's current encoded value inside a WATCH, then
// queues the write in a MULTI/EXEC pipeline. A racing writer invalidating
// the watch surfaces as *store.ConcurrentMutationError; an observed value
// that differs from old surfaces as *store.CompareAndSwapError.
func (s *Store) CompareAndSwap(ctx context.Context, key string, old *store.LimitData, new store.LimitData) (store.LimitData, error) {
	redisKey := s.key(key)
	var result store.LimitData
	var casErr error

	txf := func(tx *goredis.Tx) error {
		fields, err := tx.HGetAll(ctx, redisKey).Result()
		if err != nil {
			return err
		}

		var current *store.LimitData
		if len(fields) > 0 {
			d, err := store.DecodeLimitData(fields)
			if err != nil {
				return err
			}
			current = &d
		}

		if old == nil {
			if current != nil {
				casErr = &store.CompareAndSwapError{Key: key, Observed: current}
				return nil
			}
		} else {
			if current == nil || !current.Equal(*old) {
				casErr = &store.CompareAndSwapError{Key: key, Observed: current}
				return nil
			}
		}

		encoded := new.Encode()
		values := make([]interface{}, 0, len(encoded)*2)
		for k, v := range encoded {
			values = append(values, k, v)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, redisKey, values...)
			return nil
		})
		if err != nil {
			return err
		}
		result = new
		return nil
	}

	err := s.client.Watch(ctx, txf, redisKey)
	if casErr != nil {
		return store.LimitData{}, casErr
	}
	if err == goredis.TxFailedErr {
		return store.LimitData{}, &store.ConcurrentMutationError{Key: key, Err: err}
	}
	if err != nil {
		return store.LimitData{}, err
	}
	return result, nil
}

func (s *Store) CurrentTime(ctx context.Context) (time.Time, error) {
	t, err := s.client.Time(ctx).Result()
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (s *Store) GetWithTime(ctx context.Context, key string, loc *time.Location) (time.Time, *store.LimitData, error) {
	return store.GetWithTime(ctx, s, key, loc)
}

func (s *Store) Close() error {
	return s.client.Close()
}
