package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"notesum-backend/internal/failure"
	"notesum-backend/internal/shared/server/respond"
	"notesum-backend/internal/shared/telemetry"
)

// Recovery turns a handler panic into the standard INTERNAL error envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.Error("http.panic", map[string]any{
					"request_id":  RequestIDFromContext(c),
					"user_id":     UserIDFromContext(c),
					"document_id": c.GetString(DocumentIDKey),
					"error":       rec,
					"stack":       string(debug.Stack()),
					"path":        c.Request.URL.Path,
					"method":      c.Request.Method,
				})
				respond.Error(c, http.StatusInternalServerError, "INTERNAL", failure.MessageInternal, nil)
				c.Abort()
			}
		}()
		c.Next()
	}
}
