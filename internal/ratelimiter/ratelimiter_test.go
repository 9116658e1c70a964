package ratelimiter

import (
	"context"
	"testing"
	"time"
)

// TestAllow verifies the burst is admitted and the next submission is
// throttled until a token replenishes.
func TestAllow(t *testing.T) {
	limiter := New(10, 10)

	for i := 0; i < 10; i++ {
		if !limiter.Allow() {
			t.Fatalf("submission %d should be allowed (within burst)", i)
		}
	}

	if limiter.Allow() {
		t.Fatal("submission should be throttled after burst exhausted")
	}

	// 10/s means one token every 100ms.
	time.Sleep(110 * time.Millisecond)
	if !limiter.Allow() {
		t.Fatal("submission should be allowed after replenishment")
	}
}

func TestUnlimited(t *testing.T) {
	limiter := New(0, 0)
	for i := 0; i < 10000; i++ {
		if !limiter.Allow() {
			t.Fatal("unlimited limiter rejected a submission")
		}
	}
}

func TestWaitRespectsContext(t *testing.T) {
	limiter := New(1, 1)
	if !limiter.Allow() {
		t.Fatal("first submission should pass")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("Wait should fail once the context expires")
	}
}

func TestBurstDefaultsToRate(t *testing.T) {
	limiter := New(5, 0)
	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow() {
			allowed++
		}
	}
	if allowed != 5 {
		t.Fatalf("expected burst of 5, got %d", allowed)
	}
}
