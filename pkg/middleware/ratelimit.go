package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/servus/pkg/logger"
	"github.com/prohmpiriya/servus/pkg/response"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter decides whether another attempt under key is allowed. When it is
// not, retryAfter says how long the caller should wait.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Attempts allowed per Window for one key
	Attempts int
	Window   time.Duration
	// KeyPrefix namespaces Redis keys
	KeyPrefix string
}

// Fallbacks for a zero or negative RateLimitConfig
const (
	defaultLoginAttempts = 10
	defaultLoginWindow   = time.Minute
)

// withDefaults replaces unusable values: a zero window turns the Redis
// limit off and makes the token bucket refuse everything
func (c RateLimitConfig) withDefaults() RateLimitConfig {
	if c.Attempts < 1 {
		c.Attempts = defaultLoginAttempts
	}
	if c.Window <= 0 {
		c.Window = defaultLoginWindow
	}
	return c
}

type scripter interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *goredis.Cmd
}

// fixed window: the first hit in a window sets the expiry
const fixedWindowScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`

// RedisLimiter is a fixed-window limiter shared by every server instance
type RedisLimiter struct {
	client scripter
	config RateLimitConfig
}

// NewRedisLimiter creates a Redis-backed limiter
func NewRedisLimiter(client scripter, config RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{client: client, config: config.withDefaults()}
}

// Allow increments the window counter for key
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	values, err := rl.client.Eval(ctx, fixedWindowScript,
		[]string{rl.config.KeyPrefix + key},
		rl.config.Window.Milliseconds(),
	).Slice()
	if err != nil {
		return false, 0, err
	}
	if len(values) < 2 {
		return false, 0, fmt.Errorf("unexpected rate limit result length %d", len(values))
	}

	count, _ := values[0].(int64)
	ttl, _ := values[1].(int64)
	if count <= int64(rl.config.Attempts) {
		return true, 0, nil
	}
	if ttl < 0 {
		ttl = rl.config.Window.Milliseconds()
	}
	return false, time.Duration(ttl) * time.Millisecond, nil
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

// LocalLimiter is an in-process token bucket, used when Redis is not configured
type LocalLimiter struct {
	config    RateLimitConfig
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalLimiter creates an in-memory limiter
func NewLocalLimiter(config RateLimitConfig) *LocalLimiter {
	return &LocalLimiter{
		config:  config.withDefaults(),
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow takes one token from the key's bucket
func (rl *LocalLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := rl.now()
	capacity := float64(rl.config.Attempts)
	rate := capacity / rl.config.Window.Seconds()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.config.Window {
		rl.sweep(now, capacity, rate)
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: capacity, lastUpdate: now}
		rl.buckets[key] = b
	}

	b.tokens = math.Min(capacity, b.tokens+now.Sub(b.lastUpdate).Seconds()*rate)
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0, nil
	}
	wait := time.Duration((1 - b.tokens) / rate * float64(time.Second))
	return false, wait, nil
}

// sweep drops buckets that have refilled completely; a missing bucket
// starts full, so dropping them changes nothing
func (rl *LocalLimiter) sweep(now time.Time, capacity, rate float64) {
	for key, b := range rl.buckets {
		if b.tokens+now.Sub(b.lastUpdate).Seconds()*rate >= capacity {
			delete(rl.buckets, key)
		}
	}
	rl.lastSweep = now
}

// RateLimit throttles requests per client IP. Limiter errors fail open.
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Get().WithContext(c.Request.Context()).Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.TooManyRequests(
				"Too many attempts. Please retry after "+strconv.Itoa(seconds)+" second(s).",
			))
			return
		}

		c.Next()
	}
}
