package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"valoris-backend/internal/shared/server/respond"
	"valoris-backend/internal/shared/telemetry"
)

// Recovery converts panics into standardized 500 responses.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				telemetry.Error("panic.recovered", map[string]any{
					"request_id": RequestIDFromContext(c),
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
					"panic":      r,
				})
				respond.Error(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
			}
		}()
		c.Next()
	}
}
