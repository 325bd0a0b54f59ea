package middleware

import (
	"fmt"
	"net/http"

	"forecast-portal/internal/api/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler middleware handles panics and errors
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("panic recovered",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", RequestIDFrom(c)),
			zap.Any("panic", recovered),
		)
		details := "An unexpected error occurred"
		switch v := recovered.(type) {
		case string:
			details = v
		case error:
			details = v.Error()
		case fmt.Stringer:
			details = v.String()
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.Failure("Internal server error", details))
	})
}
