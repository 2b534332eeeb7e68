package middleware

import (
	"time"

	"ercot-mcp/internal/logger"

	"github.com/gin-gonic/gin"
)

// Logger emits one structured access log line per request.
func Logger() gin.HandlerFunc {
	log := logger.WithComponent("api")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(logger.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"client_ip":   c.ClientIP(),
		}).Info("request")
	}
}
