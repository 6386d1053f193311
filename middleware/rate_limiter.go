// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arbiterhq/arbiter/db"
	logger "github.com/arbiterhq/arbiter/logging"
)

// RateLimiter throttles per caller. Callers are keyed by the subject
// header when present, so every client behind a shared gateway IP
// gets its own budget; anonymous probes fall back to the client IP.
func RateLimiter(limit int, per time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(subjectHeader)
		if key == "" {
			key = c.ClientIP()
		}

		allowed, err := db.RateLimit(c, key, limit, per)
		if err != nil {
			logger.Error("Rate limiting failed", zap.Error(err), zap.String("caller", key))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limiting failed"})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Window", per.String())

		if !allowed {
			logger.Warn("Rate limit exceeded",
				zap.String("caller", key),
				zap.Int("limit", limit),
				zap.Duration("window", per))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}
