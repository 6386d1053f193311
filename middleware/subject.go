// middleware/subject.go

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/arbiterhq/arbiter/logging"
)

const subjectHeader = "X-Subject-ID"

// SubjectExtractor pulls the calling subject from the request header
// and puts it on the gin context for the controllers. Identity is
// asserted by the gateway in front of this service, so an empty
// header is rejected outright.
func SubjectExtractor() gin.HandlerFunc {
	return func(c *gin.Context) {
		subjectID := c.GetHeader(subjectHeader)
		if subjectID == "" {
			logger.Warn("Request without subject header",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing subject identity"})
			c.Abort()
			return
		}

		c.Set("userID", subjectID)
		c.Next()
	}
}
