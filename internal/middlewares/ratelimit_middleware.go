package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dblens/internal/logging"
	"dblens/internal/repositories"
)

// RateLimit applies a fixed-window per-IP limit backed by redis. When redis
// is unreachable the request is allowed through.
func RateLimit(redisRepo *repositories.RedisRepository, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisRepo == nil || limit <= 0 {
			c.Next()
			return
		}

		key := "ratelimit:" + c.ClientIP()
		count, err := redisRepo.IncrementRequestCount(c.Request.Context(), key, window)
		if err != nil {
			logging.Log.WithError(err).Warn("rate limiter unavailable")
			c.Next()
			return
		}
		if count > limit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, slow down"})
			return
		}
		c.Next()
	}
}
