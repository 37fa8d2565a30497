package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"taxsavings-backend/internal/transport"
)

// sweepThreshold is the bucket count above which expired buckets are purged on insert.
const sweepThreshold = 1024

// RateLimiter is a fixed-window limiter keyed by client IP and route.
type RateLimiter struct {
	limit   int
	window  time.Duration
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count int
	reset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow reports whether key may proceed and, when it may not, how long until its window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok || now.After(b.reset) {
		if !ok && len(rl.buckets) >= sweepThreshold {
			rl.sweep(now)
		}
		rl.buckets[key] = &bucket{count: 1, reset: now.Add(rl.window)}
		return true, 0
	}

	if b.count >= rl.limit {
		return false, b.reset.Sub(now)
	}

	b.count++
	return true, 0
}

func (rl *RateLimiter) sweep(now time.Time) {
	for key, b := range rl.buckets {
		if now.After(b.reset) {
			delete(rl.buckets, key)
		}
	}
}

// clientIP keys on RemoteAddr only. Forwarded headers are client supplied;
// trusted proxies are resolved into RemoteAddr by chi's RealIP upstream.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r) + ":" + r.URL.Path
		ok, retryAfter := rl.Allow(key)
		if !ok {
			seconds := int(retryAfter.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			transport.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
