package throttle_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-throttle/throttle"
	"github.com/go-throttle/throttle/store"
	"github.com/go-throttle/throttle/store/memory"
)

func TestGCRALimiter_FirstRequestAdmitted(t *testing.T) {
	ctx := context.Background()
	quota, _ := throttle.NewQuota(60*time.Second, 50)
	limiter := throttle.NewGCRALimiter(memory.New())

	r, err := limiter.RateLimit(ctx, "k", 1, quota)
	if err != nil {
		t.Fatal(err)
	}
	if r.Limited {
		t.Fatal("expected first request to be admitted")
	}
	if r.Remaining != 49 {
		t.Fatalf("expected remaining=49, got %d", r.Remaining)
	}
	if r.RetryAfter >= 0 {
		t.Fatalf("expected retry_after sentinel, got %s", r.RetryAfter)
	}
}

func TestGCRALimiter_SecondRequestWithinEmissionInterval(t *testing.T) {
	ctx := context.Background()
	quota, _ := throttle.NewQuota(60*time.Second, 50)
	limiter := throttle.NewGCRALimiter(memory.New())

	if _, err := limiter.RateLimit(ctx, "k", 1, quota); err != nil {
		t.Fatal(err)
	}
	r, err := limiter.RateLimit(ctx, "k", 1, quota)
	if err != nil {
		t.Fatal(err)
	}
	if r.Limited {
		t.Fatal("expected second request to be admitted")
	}
	if r.Remaining != 48 {
		t.Fatalf("expected remaining=48, got %d", r.Remaining)
	}
	if r.ResetAfter <= 0 || r.ResetAfter >= quota.Period {
		t.Fatalf("expected 0 < reset_after < period, got %s", r.ResetAfter)
	}
}

func TestGCRALimiter_ExhaustedBucketRejects(t *testing.T) {
	ctx := context.Background()
	quota, _ := throttle.NewQuota(60*time.Second, 50)
	s := memory.New()
	limiter := throttle.NewGCRALimiter(s)

	now := time.Now().UTC()
	tat := now.Add(60500 * time.Millisecond)
	data := store.LimitData{Used: 49, Remaining: 1, CreatedAt: now}
	data = data.WithTime(tat)
	if _, err := s.Set(ctx, "k", data); err != nil {
		t.Fatal(err)
	}

	r, err := limiter.RateLimit(ctx, "k", 1, quota)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Limited {
		t.Fatal("expected request to be rejected")
	}
	if r.Remaining != 0 {
		t.Fatalf("expected remaining=0, got %d", r.Remaining)
	}
	if r.ResetAfter < 60*time.Second || r.ResetAfter >= 120*time.Second {
		t.Fatalf("expected reset_after in [60s, 120s), got %s", r.ResetAfter)
	}
	if r.RetryAfter <= 0 || r.RetryAfter > 3*time.Second {
		t.Fatalf("expected retry_after in (0s, 3s], got %s", r.RetryAfter)
	}
}

func TestGCRALimiter_PeekDoesNotAdvanceTAT(t *testing.T) {
	ctx := context.Background()
	quota, _ := throttle.NewQuota(60*time.Second, 50)
	limiter := throttle.NewGCRALimiter(memory.New())

	if _, err := limiter.RateLimit(ctx, "k", 1, quota); err != nil {
		t.Fatal(err)
	}
	before, err := limiter.RateLimit(ctx, "k", 0, quota)
	if err != nil {
		t.Fatal(err)
	}
	after, err := limiter.RateLimit(ctx, "k", 0, quota)
	if err != nil {
		t.Fatal(err)
	}
	if before.Remaining != after.Remaining {
		t.Fatalf("expected consecutive peeks to agree: %d vs %d", before.Remaining, after.Remaining)
	}
}

func TestGCRALimiter_ClearAdmitsFreshBucket(t *testing.T) {
	ctx := context.Background()
	quota, _ := throttle.NewQuota(60*time.Second, 50)
	limiter := throttle.NewGCRALimiter(memory.New())

	for i := 0; i < 3; i++ {
		if _, err := limiter.RateLimit(ctx, "k", 1, quota); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := limiter.Reset(ctx, "k", quota); err != nil {
		t.Fatal(err)
	}

	r, err := limiter.RateLimit(ctx, "k", 1, quota)
	if err != nil {
		t.Fatal(err)
	}
	if r.Limited {
		t.Fatal("expected fresh bucket after clear to admit")
	}
	if r.Remaining != 49 {
		t.Fatalf("expected remaining=49 after clear, got %d", r.Remaining)
	}
}
