package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/milan604/resilient-fetch/pkg/logger"

	"github.com/gin-gonic/gin"
)

func RecoveryMiddleware(l logger.LogManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				l.With("log_type", "panic", "path", c.Request.URL.Path).
					ErrorFCtx(c.Request.Context(), "panic recovered: %v\n%s", r, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}
