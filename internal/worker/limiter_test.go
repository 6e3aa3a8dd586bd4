package worker

import (
	"context"
	"testing"
	"time"
)

func TestNewThrottle(t *testing.T) {
	if th := NewThrottle(0, 5); th != nil {
		t.Error("expected nil throttle for zero rate")
	}
	if th := NewThrottle(-1, 5); th != nil {
		t.Error("expected nil throttle for negative rate")
	}
	if th := NewThrottle(10, 0); th == nil {
		t.Error("expected a throttle; burst should default, not disable")
	}
}

func TestThrottle_NilAdmitsImmediately(t *testing.T) {
	var th *Throttle

	if err := th.Wait(context.Background()); err != nil {
		t.Errorf("nil throttle Wait failed: %v", err)
	}
	if !th.Allow() {
		t.Error("nil throttle should always allow")
	}
}

func TestThrottle_Wait(t *testing.T) {
	th := NewThrottle(100, 1)
	ctx := context.Background()

	if err := th.Wait(ctx); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := th.Wait(ctx); err != nil {
		t.Errorf("second wait failed: %v", err)
	}
}

func TestThrottle_AllowExhaustsBurst(t *testing.T) {
	th := NewThrottle(0.001, 1)

	if !th.Allow() {
		t.Error("first request should pass on burst")
	}
	if th.Allow() {
		t.Error("second request should fail, tokens exhausted")
	}
}

func TestThrottle_WaitCancelled(t *testing.T) {
	th := NewThrottle(0.001, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Burn the burst token, then the next wait cannot succeed before
	// the deadline.
	if err := th.Wait(ctx); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}
	if err := th.Wait(ctx); err == nil {
		t.Error("expected a deadline error")
	}
}
