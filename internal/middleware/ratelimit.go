package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizgate/quizgate/internal/response"
)

// RateLimiter is a per-IP token bucket. Used on the auth routes so
// credential guessing against the upstream is throttled at the gate.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int           // Tokens per window
	window  time.Duration // Refill window
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter creates a RateLimiter allowing limit requests per window
// per client IP.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
	}

	// Sweep idle buckets so the map does not grow with one-off clients.
	go func() {
		for range time.Tick(time.Minute) {
			rl.sweep()
		}
	}()

	return rl
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{tokens: rl.limit, lastRefill: time.Now()}
		rl.buckets[ip] = b
	}

	if elapsed := time.Since(b.lastRefill); elapsed >= rl.window {
		b.tokens = rl.limit
		b.lastRefill = time.Now()
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, b := range rl.buckets {
		if time.Since(b.lastRefill) > 3*rl.window {
			delete(rl.buckets, ip)
		}
	}
}
