package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nemaks/recordstore/infrastructure/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type RateLimiterConfig struct {
	RequestsPerWindow int           // Number of requests allowed
	Window            time.Duration // Time window
	BlockDuration     time.Duration // How long to block after exceeding limit
}

const rateLimitScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local expiry = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

local currentCount = redis.call('ZCARD', key)

redis.call('ZADD', key, now, now)
redis.call('EXPIRE', key, expiry)

local remaining = math.max(limit - currentCount - 1, 0)
local allowed = currentCount < limit

return {allowed and 1 or 0, remaining, currentCount + 1}
`

const checkBlockScript = `
local blockKey = KEYS[1]

local exists = redis.call('EXISTS', blockKey)
if exists == 0 then
    return {0, 0}
end

local ttl = redis.call('TTL', blockKey)
return {1, ttl}
`

// limiter decides per client key. blocked reports a remaining block; allow consumes one request.
type limiter interface {
	blocked(ctx context.Context, key string) (time.Duration, error)
	allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	block(ctx context.Context, key string) error
}

// RateLimiterMiddleware limits requests per client IP. With a redis client the window is shared by
// every replica; without one each process keeps its own token buckets.
func RateLimiterMiddleware(redisClient *redis.Client, logger *logger.Logger, config RateLimiterConfig) gin.HandlerFunc {
	var l limiter
	if redisClient != nil {
		l = &redisLimiter{client: redisClient, config: config}
	} else {
		l = newLocalLimiter(config)
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		clientKey := c.ClientIP()

		ttl, err := l.blocked(ctx, clientKey)
		if err != nil {
			logger.Error("failed to check if client is blocked", zap.Error(err), zap.String("client", clientKey))
			c.Next()
			return
		}
		if ttl > 0 {
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.RequestsPerWindow))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     "Too many requests. You have been temporarily blocked.",
				"retry_after": int(ttl.Seconds()),
			})
			return
		}

		allowed, remaining, err := l.allow(ctx, clientKey)
		if err != nil {
			logger.Error("failed to check rate limit", zap.Error(err), zap.String("client", clientKey))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", config.RequestsPerWindow))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			if err := l.block(ctx, clientKey); err != nil {
				logger.Error("failed to block client", zap.Error(err), zap.String("client", clientKey))
			}

			logger.Warn("rate limit exceeded",
				zap.String("client", clientKey),
				zap.String("path", c.Request.URL.Path),
			)

			c.Header("Retry-After", fmt.Sprintf("%d", int(config.BlockDuration.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate_limit_exceeded",
				"message":     fmt.Sprintf("Rate limit exceeded. Maximum %d requests per %v.", config.RequestsPerWindow, config.Window),
				"retry_after": int(config.BlockDuration.Seconds()),
			})
			return
		}

		c.Next()
	}
}

type redisLimiter struct {
	client *redis.Client
	config RateLimiterConfig
}

func (r *redisLimiter) blocked(ctx context.Context, key string) (time.Duration, error) {
	result, err := r.client.Eval(ctx, checkBlockScript, []string{"ratelimit:block:" + key}).Result()
	if err != nil {
		return 0, err
	}
	info, ok := result.([]any)
	if !ok || len(info) != 2 {
		return 0, fmt.Errorf("unexpected block script result %v", result)
	}
	if isBlocked, _ := info[0].(int64); isBlocked != 1 {
		return 0, nil
	}
	ttl, _ := info[1].(int64)
	if ttl <= 0 {
		ttl = 1
	}
	return time.Duration(ttl) * time.Second, nil
}

func (r *redisLimiter) allow(ctx context.Context, key string) (bool, int, error) {
	now := time.Now()
	result, err := r.client.Eval(ctx, rateLimitScript,
		[]string{"ratelimit:" + key},
		now.UnixNano(),
		r.config.Window.Nanoseconds(),
		r.config.RequestsPerWindow,
		int(r.config.Window.Seconds())+60, // expiry buffer
	).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	values, ok := result.([]any)
	if !ok || len(values) < 2 {
		return false, 0, fmt.Errorf("unexpected rate limit script result %v", result)
	}
	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	return allowed == 1, int(remaining), nil
}

func (r *redisLimiter) block(ctx context.Context, key string) error {
	return r.client.Set(ctx, "ratelimit:block:"+key, "1", r.config.BlockDuration).Err()
}

type localLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	blockedUntil map[string]time.Time
}

func newLocalLimiter(config RateLimiterConfig) *localLimiter {
	return &localLimiter{
		config:   config,
		buckets:  map[string]*rate.Limiter{},
		blockedUntil: map[string]time.Time{},
	}
}

func (l *localLimiter) blocked(_ context.Context, key string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	until, ok := l.blockedUntil[key]
	if !ok {
		return 0, nil
	}
	if ttl := time.Until(until); ttl > 0 {
		return ttl, nil
	}
	delete(l.blockedUntil, key)
	return 0, nil
}

func (l *localLimiter) allow(_ context.Context, key string) (bool, int, error) {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		every := rate.Every(l.config.Window / time.Duration(max(l.config.RequestsPerWindow, 1)))
		b = rate.NewLimiter(every, l.config.RequestsPerWindow)
		l.buckets[key] = b
	}
	l.mu.Unlock()

	allowed := b.Allow()
	return allowed, max(int(b.Tokens()), 0), nil
}

func (l *localLimiter) block(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blockedUntil[key] = time.Now().Add(l.config.BlockDuration)
	delete(l.buckets, key)
	return nil
}
