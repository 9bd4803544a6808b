package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Limiter is a fixed one-minute window limiter keyed by caller.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	now     func() time.Time

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
	onReject     func(key string)
}

type window struct {
	start time.Time
	count int
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	// OnReject is called for every rejected request, e.g. to count it.
	OnReject func(key string)
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a limiter and starts its cleanup goroutine. Call Stop to release it.
func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}
	rl := newLimiter(config.RequestsPerMinute, time.Now)
	rl.onReject = config.OnReject
	go rl.cleanupLoop(config.CleanupInterval)
	return rl
}

func newLimiter(limit int, now func() time.Time) *Limiter {
	return &Limiter{
		windows:     make(map[string]*window),
		limit:       limit,
		now:         now,
		stopCleanup: make(chan struct{}),
	}
}

// Allow records a request for key and reports whether it is within the limit.
func (rl *Limiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= time.Minute {
		rl.windows[key] = &window{start: now, count: 1}
		return true
	}
	w.count++
	return w.count <= rl.limit
}

// retryAfter returns the seconds left in key's current window.
func (rl *Limiter) retryAfter(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	w, ok := rl.windows[key]
	if !ok {
		return 0
	}
	left := time.Minute - rl.now().Sub(w.start)
	if left < time.Second {
		return 1
	}
	return int(left / time.Second)
}

func (rl *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopCleanup:
			return
		}
	}
}

// sweep drops windows that ended more than a minute ago.
func (rl *Limiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-2 * time.Minute)
	for key, w := range rl.windows {
		if w.start.Before(cutoff) {
			delete(rl.windows, key)
		}
	}
}

// ActiveClients returns the number of tracked keys.
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Stop shuts down the cleanup goroutine. It is safe to call more than once.
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() { close(rl.stopCleanup) })
}

// Middleware rejects requests over the limit with 429. key selects the
// bucket for a request; onLimit writes the rejection body.
func (rl *Limiter) Middleware(key func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if !rl.Allow(k) {
				if rl.onReject != nil {
					rl.onReject(k)
				}
				w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter(k)))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
