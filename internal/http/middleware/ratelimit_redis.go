// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a fixed-window rate limiter whose counters live in
// Redis, so every replica of the service enforces the same per-identity
// budget. It complements the in-memory RateLimiter for horizontally scaled
// deployments.
//
// Each request increments "<prefix><key>:<window index>"; the first
// increment of a window sets its expiry. Requests above the window budget get
// the same 429 envelope as the in-memory limiter. When Redis is unreachable
// the limiter fails open and logs a warning.
package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// WindowCounter increments the counter for key and returns the new value.
// The counter must expire no earlier than window after its first increment.
type WindowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter is a WindowCounter backed by INCR and EXPIRE.
type RedisCounter struct {
	Client redis.Cmdable
}

// Incr implements WindowCounter.
func (r RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := r.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		// the window index is part of the key, so expiry only reclaims memory
		if err := r.Client.Expire(ctx, key, 2*window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// SharedRateLimiter enforces a per-key request budget per fixed window.
type SharedRateLimiter struct {
	counter WindowCounter
	limit   int64
	window  time.Duration
	keyFn   keyFunc
	prefix  string
	now     func() time.Time
}

// NewSharedRateLimiter builds a limiter allowing the larger of burst and
// rps×window requests per window for every key.
func NewSharedRateLimiter(counter WindowCounter, rps float64, burst int, window time.Duration, keyFn keyFunc) *SharedRateLimiter {
	if window <= 0 {
		window = time.Second
	}
	limit := int64(math.Ceil(rps * window.Seconds()))
	if int64(burst) > limit {
		limit = int64(burst)
	}
	if limit < 1 {
		limit = 1
	}
	return &SharedRateLimiter{
		counter: counter,
		limit:   limit,
		window:  window,
		keyFn:   keyFn,
		prefix:  "ratelimit:",
		now:     time.Now,
	}
}

// Limit returns the per-window budget.
func (rl *SharedRateLimiter) Limit() int64 { return rl.limit }

// Handler returns a Gin middleware enforcing the shared budget. Idempotent
// replays bypass it like they bypass the in-memory limiter.
func (rl *SharedRateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		now := rl.now()
		idx := now.UnixNano() / int64(rl.window)
		key := rl.prefix + rl.keyFn(c) + ":" + strconv.FormatInt(idx, 10)

		n, err := rl.counter.Incr(c.Request.Context(), key, rl.window)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("rate limiter unavailable; allowing request")
			c.Next()
			return
		}
		if n <= rl.limit {
			c.Next()
			return
		}

		retry := time.Duration(idx+1)*rl.window - time.Duration(now.UnixNano())
		secs := int(math.Ceil(retry.Seconds()))
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", strconv.Itoa(secs))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
