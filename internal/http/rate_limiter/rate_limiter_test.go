package rate_limiter

import (
	"testing"
	"time"
)

func TestLimiter_BurstPerIP(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1, 2)
	l.now = func() time.Time { return base }

	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatal("expected burst of 2 to be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Error("expected third request to be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("expected other IP to have its own bucket")
	}

	l.now = func() time.Time { return base.Add(time.Second) }
	if !l.Allow("10.0.0.1") {
		t.Error("expected a token to be refilled after one second")
	}
}

func TestLimiter_Cleanup(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(1, 1)
	l.now = func() time.Time { return base }
	l.Allow("a")

	l.now = func() time.Time { return base.Add(10 * time.Minute) }
	l.Allow("b")
	l.cleanup(5 * time.Minute)

	if _, ok := l.visitors["a"]; ok {
		t.Error("expected idle visitor to be removed")
	}
	if _, ok := l.visitors["b"]; !ok {
		t.Error("expected recent visitor to be kept")
	}
}
