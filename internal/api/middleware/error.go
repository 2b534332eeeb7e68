package middleware

import (
	"net/http"

	"ercot-mcp/internal/api/models"
	"ercot-mcp/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler recovers from handler panics and emits the uniform error
// envelope instead of gin's default plain 500.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithComponent("api").WithFields(logger.Fields{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		}).Error("handler panic")

		message := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			message = s
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: message,
			},
		})
		c.Abort()
	})
}
