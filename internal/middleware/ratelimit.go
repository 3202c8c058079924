package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/sakshampandey1901/Cite/internal/platform/envutil"
	"github.com/sakshampandey1901/Cite/internal/platform/logger"
)

type RateLimitConfig struct {
	// Limit is the number of requests allowed per Window per identity.
	Limit  int
	Window time.Duration
}

func RateLimitConfigFromEnv() RateLimitConfig {
	return RateLimitConfig{
		Limit:  envutil.Int("RATE_LIMIT_REQUESTS", 60),
		Window: envutil.Duration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

// RateLimiter implements a fixed-window counter in Redis, keyed by
// authenticated user when present and client IP otherwise.
type RateLimiter struct {
	log *logger.Logger
	rdb *redis.Client
	cfg RateLimitConfig
}

func NewRateLimiter(baseLog *logger.Logger, rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.Limit <= 0 {
		cfg.Limit = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimiter{log: baseLog.With("middleware", "RateLimiter"), rdb: rdb, cfg: cfg}
}

func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.ClientIP()
		if id, ok := UserID(c); ok {
			identity = id.String()
		}
		window := time.Now().Unix() / int64(rl.cfg.Window.Seconds())
		key := fmt.Sprintf("ratelimit:%s:%d", identity, window)

		ctx := c.Request.Context()
		count, err := rl.rdb.Incr(ctx, key).Result()
		if err != nil {
			// Redis being down should not take the API with it.
			rl.log.Warn("rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			rl.rdb.Expire(ctx, key, rl.cfg.Window)
		}
		if count > int64(rl.cfg.Limit) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(rl.cfg.Window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
