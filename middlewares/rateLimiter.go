package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/svfabworks/factory_backend/config"
)

// RateLimiter is a fixed-window counter over redis, keyed by client IP.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// mutating reports whether the method can change server state. Reads are
// never rate limited.
func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	if !mutating(c.Request.Method) {
		c.Next()
		return
	}

	client := rl.client
	if client == nil {
		// The server accepts traffic before redis finishes connecting.
		client = config.GetRedisDB()
		rl.client = client
	}
	if client == nil {
		c.Next()
		return
	}

	key := "ratelimit:" + c.ClientIP()

	exists, err := client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		// Redis being down should degrade to no limiting, not to outage.
		c.Next()
		return
	}
	if exists == 0 {
		if err := client.Set(c.Request.Context(), key, 1, rl.window).Err(); err != nil {
			c.Next()
			return
		}
		c.Next()
		return
	}

	count, err := client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.Next()
		return
	}
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}
