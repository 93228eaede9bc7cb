package decorator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-throttle/throttle"
	"github.com/go-throttle/throttle/decorator"
	"github.com/go-throttle/throttle/store/memory"
)

func TestCall_AdmitsWithinQuota(t *testing.T) {
	ctx := context.Background()
	quota, _ := throttle.PerMinute(2)
	th := throttle.NewThrottle(quota, throttle.NewPeriodicLimiter(memory.New()))

	calls := 0
	err := decorator.Call(ctx, th, "k", func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected fn to be called once, got %d", calls)
	}
}

func TestCall_RejectsOverQuota(t *testing.T) {
	ctx := context.Background()
	quota, _ := throttle.PerMinute(1)
	th := throttle.NewThrottle(quota, throttle.NewPeriodicLimiter(memory.New()))

	noop := func() error { return nil }
	if err := decorator.Call(ctx, th, "k", noop); err != nil {
		t.Fatal(err)
	}

	calls := 0
	err := decorator.Call(ctx, th, "k", func() error {
		calls++
		return nil
	})
	var exceeded *decorator.ThrottleExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected *decorator.ThrottleExceededError, got %T", err)
	}
	if calls != 0 {
		t.Fatal("expected fn not to be called when throttled")
	}
}

func TestSleepAndRetry_EventuallySucceeds(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	quota, _ := throttle.NewQuota(50*time.Millisecond, 1)
	th := throttle.NewThrottle(quota, throttle.NewPeriodicLimiter(memory.New()))

	// First call consumes the only slot in this window.
	if err := decorator.Call(ctx, th, "k", func() error { return nil }); err != nil {
		t.Fatal(err)
	}

	calls := 0
	err := decorator.SleepAndRetry(ctx, th, "k", func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one successful call once the window rolled over, got %d", calls)
	}
}
