package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReaderAPIKeyHeader is the header reader devices present on every submission
const ReaderAPIKeyHeader = "x-api-key"

// ReaderAuth gates reader-facing routes behind the shared device key. An empty
// configured key disables the check, which is only sensible for local
// development.
func ReaderAuth(logger *slog.Logger, apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		presented := c.GetHeader(ReaderAPIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
			logger.Warn("Rejected reader request with bad API key",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
			)

			response := gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid or missing API key",
				},
			}
			if correlationID := GetCorrelationID(c); correlationID != "" {
				response["correlation_id"] = correlationID
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, response)
			return
		}

		c.Next()
	}
}
