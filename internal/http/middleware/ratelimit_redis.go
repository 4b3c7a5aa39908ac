package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"oink_ledger/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient redis.UniversalClient

// fixed window counter; returns {count, ttl_ms}
var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// InitRedisRateLimiter sets the shared client used by the limiters. With a nil
// client every limiter fails open, so all instances must share one Redis for
// limits to hold across the deployment.
func InitRedisRateLimiter(client *redis.Client) {
	if client == nil {
		redisClient = nil
		return
	}
	redisClient = client
}

// RedisRateLimit limits requests per client IP.
// key format: rl:ip:<window_seconds>:<ip>
func RedisRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return rateLimit("ip", maxRequests, window, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// WriteRateLimit limits mutating requests per acting fid. It must run after
// Identity; without an authenticated fid it falls back to the client IP.
func WriteRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return rateLimit("write", maxRequests, window, func(c *gin.Context) string {
		if fid, ok := ActingFID(c); ok {
			return "fid:" + fid
		}
		return "ip:" + c.ClientIP()
	})
}

func rateLimit(scope string, maxRequests int, window time.Duration, ident func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil || maxRequests <= 0 {
			c.Next()
			return
		}

		key := "rl:" + scope + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		count, retryAfter, err := consume(ctx, key, window)
		cancel()
		if err != nil {
			// fail-open
			logger.WithContext(c.Request.Context()).Warn("rate limiter unavailable", "scope", scope, "error", err)
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, maxRequests-count)))

		if count > maxRequests {
			RLBlocked.WithLabelValues(scope, c.FullPath()).Inc()
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded", "retryable": true})
			return
		}

		RLRequests.WithLabelValues(scope, c.FullPath()).Inc()
		c.Next()
	}
}

func consume(ctx context.Context, key string, window time.Duration) (count int, retryAfterSeconds int, err error) {
	windowMs := window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	raw, err := rateLimitScript.Run(ctx, redisClient, []string{strings.TrimSpace(key)}, windowMs).Result()
	if err != nil {
		return 0, 0, err
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected limiter response: %T", raw)
	}
	current, ok := values[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected limiter count: %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok || ttlMs < 0 {
		ttlMs = windowMs
	}

	retryAfter := int(math.Ceil(float64(ttlMs) / 1000.0))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return int(current), retryAfter, nil
}
