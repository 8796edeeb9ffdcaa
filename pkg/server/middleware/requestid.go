package middleware

import (
	"github.com/milan604/resilient-fetch/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID is the default request id header.
const HeaderRequestID = "X-Request-ID"

type RequestIDConfig struct {
	HeaderName string
	// If true, accept incoming request id header; otherwise always generate new
	AllowIncoming bool
}

func defaultRequestIDConfig() RequestIDConfig {
	return RequestIDConfig{
		HeaderName:    HeaderRequestID,
		AllowIncoming: true,
	}
}

// RequestIDMiddleware stores a request id in the request context, where the
// *FCtx logger methods pick it up, and echoes it in the response header.
func RequestIDMiddleware(opts ...RequestIDConfig) gin.HandlerFunc {
	cfg := defaultRequestIDConfig()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	return func(c *gin.Context) {
		var reqID string
		if cfg.AllowIncoming {
			reqID = c.GetHeader(cfg.HeaderName)
		}
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), reqID))
		c.Writer.Header().Set(cfg.HeaderName, reqID)
		c.Next()
	}
}
