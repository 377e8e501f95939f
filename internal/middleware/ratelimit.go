// ratelimit.go throttles clients with a per-key token bucket. Authenticated
// requests are keyed by user ID so a NAT full of users does not share one
// bucket; anonymous requests (login, register) fall back to the client IP.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig sizes a token bucket.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained refill rate.
	RequestsPerMinute int
	// Burst is the bucket capacity, the number of requests a quiet client
	// may issue back to back.
	Burst int
	// SweepInterval is how often idle buckets are discarded.
	SweepInterval time.Duration
}

// LoginRateLimitConfig sizes the bucket for the unauthenticated auth
// endpoints. Deliberately tight: every allowed request costs a bcrypt
// verification, and login is the natural credential-stuffing target.
func LoginRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
		Burst:             5,
		SweepInterval:     5 * time.Minute,
	}
}

// bucket is the per-client token level. level is fractional between refills.
type bucket struct {
	level      float64
	refilledAt time.Time
}

// RateLimiter tracks a token bucket per client key.
type RateLimiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	buckets map[string]*bucket
	done    chan struct{}
}

// NewRateLimiter creates a limiter and starts its idle-bucket sweeper. Call
// Stop during shutdown to end the sweeper goroutine.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	rl := &RateLimiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Stop ends the sweeper goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-2 * rl.cfg.SweepInterval)
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if b.refilledAt.Before(cutoff) {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.done:
			return
		}
	}
}

// refillLocked brings the bucket's token level up to date. Caller holds mu.
func (rl *RateLimiter) refillLocked(b *bucket, now time.Time) {
	perSecond := float64(rl.cfg.RequestsPerMinute) / 60.0
	b.level = min(float64(rl.cfg.Burst), b.level+now.Sub(b.refilledAt).Seconds()*perSecond)
	b.refilledAt = now
}

// Allow spends one token for key, reporting whether one was available.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[key]
	if !ok {
		rl.buckets[key] = &bucket{level: float64(rl.cfg.Burst) - 1, refilledAt: now}
		return true
	}

	rl.refillLocked(b, now)
	if b.level < 1 {
		return false
	}
	b.level--
	return true
}

// Remaining reports how many whole tokens key has left, for the
// X-RateLimit-Remaining response header.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		return rl.cfg.Burst
	}
	rl.refillLocked(b, time.Now())
	return int(b.level)
}

// RateLimitMiddleware rejects requests over the limit with 429 and a
// Retry-After hint. Allowed requests carry the usual X-RateLimit headers.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c)

		if !limiter.Allow(key) {
			c.Header("Retry-After", "60")
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": 60,
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.cfg.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))

		c.Next()
	}
}

// clientKey prefers the authenticated user ID set by AuthMiddleware and
// falls back to the client IP for anonymous routes.
func clientKey(c *gin.Context) string {
	if id := c.GetString(UserIDKey); id != "" {
		return "user:" + id
	}
	return "ip:" + c.ClientIP()
}
