package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/todoshare/internal/pkg/response"
)

// Middleware creates a rate limiting middleware keyed by client IP
func Middleware(limiter *RateLimiter) gin.HandlerFunc {
	return CustomKeyMiddleware(limiter, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// UserBasedMiddleware keys by the authenticated user, falling back to IP
func UserBasedMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return CustomKeyMiddleware(limiter, func(c *gin.Context) string {
		return c.GetString("userID")
	})
}

// CustomKeyMiddleware creates a rate limiting middleware with custom key function
func CustomKeyMiddleware(limiter *RateLimiter, keyFunc func(c *gin.Context) string) gin.HandlerFunc {
	limit := strconv.Itoa(limiter.Limit())

	return func(c *gin.Context) {
		key := keyFunc(c)
		if key == "" {
			key = c.ClientIP()
		}

		allowed := limiter.Allow(key)
		resetTime := limiter.ResetTime(key)

		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key)))
		c.Header("X-RateLimit-Reset", resetTime.Format(time.RFC3339))

		if !allowed {
			retryAfter := int(math.Ceil(time.Until(resetTime).Seconds()))
			if retryAfter < 1 {
				retryAfter = int(limiter.Window().Seconds())
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			response.ErrorWithData(c, http.StatusTooManyRequests, "Rate limit exceeded. Try again later.", gin.H{
				"retry_after": strconv.Itoa(retryAfter) + "s",
				"reset_time":  resetTime.Format(time.RFC3339),
				"limit":       limiter.Limit(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
