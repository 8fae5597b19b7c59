// rate_limiter.go - Token bucket rate limiting for the public analysis endpoints

package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter implements a simple token bucket rate limiter
type RateLimiter struct {
	tokens         int
	maxTokens      int
	refillRate     time.Duration
	lastRefillTime time.Time
	now            func() time.Time
	mu             sync.Mutex
}

// NewRateLimiter creates a new rate limiter
// maxTokens: bucket size (burst)
// refillRate: time between token refills
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillRate:     refillRate,
		lastRefillTime: time.Now(),
		now:            time.Now,
	}
}

// refill adds the tokens earned since the last refill. Caller holds mu.
func (rl *RateLimiter) refill() {
	now := rl.now()
	tokensToAdd := int(now.Sub(rl.lastRefillTime) / rl.refillRate)
	if tokensToAdd > 0 {
		rl.tokens += tokensToAdd
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefillTime = rl.lastRefillTime.Add(time.Duration(tokensToAdd) * rl.refillRate)
	}
	if rl.tokens == rl.maxTokens {
		rl.lastRefillTime = now
	}
}

// Allow consumes a token if one is available, without blocking
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens <= 0 {
		return false
	}
	rl.tokens--
	return true
}

// RetryAfter returns how long until the next token is available
func (rl *RateLimiter) RetryAfter() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens > 0 {
		return 0
	}
	return rl.refillRate - rl.now().Sub(rl.lastRefillTime)
}

// Wait blocks until a token is available or ctx is done
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.Allow() {
			return nil
		}

		wait := rl.RetryAfter()
		if wait <= 0 || wait > 100*time.Millisecond {
			wait = 100 * time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Middleware rejects requests with 429 when the bucket is empty.
// Paths in exempt are never limited.
func Middleware(rl *RateLimiter, exempt ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.FullPath()] || rl.Allow() {
			c.Next()
			return
		}

		retry := int(math.Ceil(rl.RetryAfter().Seconds()))
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"status":      "error",
			"error":       "rate_limited",
			"message":     "Too many requests, please retry later",
			"retry_after": retry,
		})
	}
}
