package topicblog

import (
	"testing"
	"time"
)

func TestFallbackLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewFallbackLimiter(2, time.Minute)
	defer limiter.Close()
	ip := "203.0.113.10"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first generation to be allowed")
	}
	if !limiter.Allow(ip) {
		t.Fatalf("expected second generation to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected third generation to be blocked")
	}
}

func TestFallbackLimiterRefillsAfterWindow(t *testing.T) {
	limiter := NewFallbackLimiter(1, 150*time.Millisecond)
	defer limiter.Close()
	ip := "203.0.113.20"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first generation to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected second generation to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Allow(ip) {
		t.Fatalf("expected generation after window to be allowed")
	}
}

func TestFallbackLimiterIsPerIP(t *testing.T) {
	limiter := NewFallbackLimiter(1, time.Minute)
	defer limiter.Close()

	if !limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.Allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestFallbackLimiterDisabled(t *testing.T) {
	limiter := NewFallbackLimiter(0, time.Minute)
	defer limiter.Close()

	for i := 0; i < 100; i++ {
		if !limiter.Allow("203.0.113.40") {
			t.Fatalf("expected disabled limiter to allow generation %d", i)
		}
	}
}
