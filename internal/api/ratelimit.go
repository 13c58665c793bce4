package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// realIP extracts the client's IP address, preferring X-Forwarded-For when
// the server sits behind a reverse proxy.
func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First IP in the chain is the original client
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type rateEntry struct {
	count    int
	windowAt time.Time
}

// RateLimiter provides in-memory, fixed-window rate limiting.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateEntry
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		entries: make(map[string]*rateEntry),
	}
}

// Allow returns true if the key has not exceeded limit in the given window.
func (rl *RateLimiter) Allow(key string, limit int, window time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	// Evict entries whose windows have expired so the map stays bounded.
	for k, e := range rl.entries {
		if now.After(e.windowAt) {
			delete(rl.entries, k)
		}
	}

	e, ok := rl.entries[key]
	if !ok || now.After(e.windowAt) {
		rl.entries[key] = &rateEntry{count: 1, windowAt: now.Add(window)}
		return true
	}
	e.count++
	return e.count <= limit
}

// RateLimit returns middleware that limits requests per client IP.
func RateLimit(limiter *RateLimiter, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(realIP(r), limit, window) {
				jsonError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
