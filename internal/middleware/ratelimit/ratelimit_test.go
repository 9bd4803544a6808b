package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestAllowWindow(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newLimiter(2, c.now)

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Error("third request in window should be rejected")
	}
	if !rl.Allow("b") {
		t.Error("other keys have their own window")
	}

	c.t = c.t.Add(time.Minute)
	if !rl.Allow("a") {
		t.Error("new window should reset the count")
	}
}

func TestSweep(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newLimiter(5, c.now)
	rl.Allow("old")
	c.t = c.t.Add(3 * time.Minute)
	rl.Allow("fresh")

	rl.sweep()
	if rl.ActiveClients() != 1 {
		t.Errorf("active = %d, want 1", rl.ActiveClients())
	}
}

func TestMiddlewareRejects(t *testing.T) {
	c := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newLimiter(1, c.now)
	rejected := 0
	rl.onReject = func(string) { rejected++ }

	h := rl.Middleware(func(*http.Request) string { return "k" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("first code = %d", rr.Code)
	}

	c.t = c.t.Add(15 * time.Second)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second code = %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "45" {
		t.Errorf("Retry-After = %q, want 45", got)
	}
	if rejected != 1 {
		t.Errorf("rejected = %d", rejected)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Hour})
	rl.Stop()
	rl.Stop()
}
