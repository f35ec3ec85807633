package ratelimiter

import (
	"context"
	"testing"
	"time"
)

func TestAllow(t *testing.T) {
	// 10 req/s sustained, burst of 10.
	limiter := New(10, 10)

	// The full burst is allowed immediately.
	for i := 0; i < 10; i++ {
		if !limiter.Allow() {
			t.Fatalf("request %d should be allowed (within burst)", i)
		}
	}

	// The bucket is now empty.
	if limiter.Allow() {
		t.Fatal("request should be rejected after burst exhausted")
	}

	// One token replenishes after 100ms at 10 req/s.
	time.Sleep(110 * time.Millisecond)
	if !limiter.Allow() {
		t.Fatal("request should be allowed after token replenishment")
	}
}

func TestAllowN(t *testing.T) {
	limiter := New(10, 10)

	if !limiter.AllowN(5) {
		t.Fatal("AllowN(5) should succeed with burst of 10")
	}
	if !limiter.AllowN(5) {
		t.Fatal("AllowN(5) should succeed, total 10 within burst")
	}
	if limiter.AllowN(1) {
		t.Fatal("AllowN(1) should fail after burst exhausted")
	}
}

func TestWait(t *testing.T) {
	// 10 req/s, burst of 1, so the second caller has to wait ~100ms.
	limiter := New(10, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("first request should succeed: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("second request should succeed after waiting: %v", err)
	}
	elapsed := time.Since(start)

	// Allow margin for timing jitter.
	if elapsed < 50*time.Millisecond || elapsed > 200*time.Millisecond {
		t.Fatalf("wait time %v outside expected range 50ms-200ms", elapsed)
	}
}

func TestWaitContextCancellation(t *testing.T) {
	limiter := New(1, 1)

	// Exhaust the burst so Wait has to block.
	if !limiter.Allow() {
		t.Fatal("first request should be allowed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("Wait() should return an error when the context expires")
	}
}

func TestTokens(t *testing.T) {
	limiter := New(10, 10)

	initial := limiter.Tokens()
	if initial < 9 || initial > 10 {
		t.Fatalf("initial tokens %f outside expected range 9-10", initial)
	}

	for i := 0; i < 5; i++ {
		limiter.Allow()
	}

	remaining := limiter.Tokens()
	if remaining < 4 || remaining > 6 {
		t.Fatalf("remaining tokens %f outside expected range 4-6", remaining)
	}
}

func TestUnlimitedRate(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 1000; i++ {
		if !limiter.Allow() {
			t.Fatalf("unlimited limiter should allow request %d", i)
		}
	}
}

func BenchmarkAllow(b *testing.B) {
	limiter := New(1_000_000, 1_000_000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow()
	}
}
