package middleware

import (
	"time"

	"github.com/milan604/resilient-fetch/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AccessLoggerMiddleware logs each request after completion. Successful
// requests are logged at debug level so metric scrapes stay quiet.
func AccessLoggerMiddleware(l logger.LogManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		entry := l.With(
			"log_type", "access",
			"ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", latency.Milliseconds(),
			"size", c.Writer.Size(),
		)
		ctx := c.Request.Context()
		switch {
		case status >= 500:
			entry.ErrorFCtx(ctx, "%s %s", c.Request.Method, c.Request.URL.Path)
		case status >= 400:
			entry.WarnFCtx(ctx, "%s %s", c.Request.Method, c.Request.URL.Path)
		default:
			entry.DebugFCtx(ctx, "%s %s", c.Request.Method, c.Request.URL.Path)
		}
	}
}
