package rediskv_test

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/go-throttle/throttle/store"
	"github.com/go-throttle/throttle/store/rediskv"
)

func newTestStore(t *testing.T) *rediskv.Store {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return rediskv.New(client, rediskv.WithKeyPrefix("throttle-test"))
}

func TestStore_InterfaceCompliance(t *testing.T) {
	var _ store.Store = (*rediskv.Store)(nil)
}

func TestStore_GetSetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	// The wire format carries microseconds, so start from values it can hold.
	now := time.Now().UTC().Truncate(time.Microsecond)
	tat := now.Add(time.Minute)
	data := store.LimitData{Used: 2, Remaining: 3, CreatedAt: now, Time: &tat}

	if _, err := s.Set(ctx, "roundtrip", data); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, "roundtrip")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || !got.Equal(data) {
		t.Fatalf("expected %+v, got %+v", data, got)
	}
}

func TestStore_CompareAndSwap_Mismatch(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	initial := store.LimitData{Used: 1, Remaining: 4, CreatedAt: time.Now().UTC()}
	if _, err := s.Set(ctx, "cas-mismatch", initial); err != nil {
		t.Fatal(err)
	}

	stale := initial.WithUsedRemaining(0, 5)
	_, err := s.CompareAndSwap(ctx, "cas-mismatch", &stale, initial.WithUsedRemaining(2, 3))
	if _, ok := err.(*store.CompareAndSwapError); !ok {
		t.Fatalf("expected *store.CompareAndSwapError, got %T", err)
	}
}

func TestStore_CurrentTime(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	before := time.Now().UTC()
	now, err := s.CurrentTime(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if now.Before(before.Add(-time.Second)) || now.After(time.Now().UTC().Add(time.Second)) {
		t.Fatalf("store clock %v too far from local clock %v", now, before)
	}
}

func TestNewFromURL_RejectsUnsupportedScheme(t *testing.T) {
	_, err := rediskv.NewFromURL("http://localhost:6379")
	if _, ok := err.(*store.InvalidStoreURLError); !ok {
		t.Fatalf("expected *store.InvalidStoreURLError, got %T", err)
	}
}

func TestNewFromURL_RejectsMissingScheme(t *testing.T) {
	_, err := rediskv.NewFromURL("//localhost:6379")
	if _, ok := err.(*store.InvalidStoreURLError); !ok {
		t.Fatalf("expected *store.InvalidStoreURLError, got %T", err)
	}
}
