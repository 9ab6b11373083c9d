package middleware

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(2, 1)
	ctx := context.Background()

	if !tb.Allow(ctx) || !tb.Allow(ctx) {
		t.Fatalf("expected first two requests allowed")
	}
	if tb.Allow(ctx) {
		t.Fatalf("expected bucket drained")
	}
}

func TestSlidingWindowAllow(t *testing.T) {
	sw := NewSlidingWindow(100*time.Millisecond, 2)
	ctx := context.Background()

	if !sw.Allow(ctx) || !sw.Allow(ctx) {
		t.Fatalf("expected first two requests allowed")
	}
	if sw.Allow(ctx) {
		t.Fatalf("expected window full")
	}
	time.Sleep(120 * time.Millisecond)
	if !sw.Allow(ctx) {
		t.Fatalf("expected window to slide open again")
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker("store", 2, 50*time.Millisecond)
	ctx := context.Background()
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if err := cb.Call(ctx, func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("expected failure to pass through, got %v", err)
		}
	}
	if err := cb.Call(ctx, func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	if err := cb.Call(ctx, func() error { return nil }); err != nil {
		t.Fatalf("expected half-open probe to succeed, got %v", err)
	}
	if err := cb.Call(ctx, func() error { return nil }); err != nil {
		t.Fatalf("expected circuit closed again, got %v", err)
	}
}
