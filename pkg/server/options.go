package server

import (
	"net"
	"time"

	"github.com/milan604/resilient-fetch/pkg/config"
	"github.com/milan604/resilient-fetch/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// StartOption configures Start behavior (functional options)
type StartOption func(*startOptions)

type startOptions struct {
	cfg    *config.Config
	logger logger.LogManager

	// server-level: graceful shutdown timeout
	shutdownTimeout time.Duration

	addr     string
	listener net.Listener
}

// StartWithConfig reads the listen address from metrics.addr.
func StartWithConfig(c *config.Config) StartOption {
	return func(o *startOptions) { o.cfg = c }
}

// StartWithLogger passes a logger
func StartWithLogger(l logger.LogManager) StartOption {
	return func(o *startOptions) { o.logger = l }
}

// StartWithShutdownTimeout custom shutdown timeout
func StartWithShutdownTimeout(d time.Duration) StartOption {
	return func(o *startOptions) { o.shutdownTimeout = d }
}

// StartWithAddr override listen address (host:port)
func StartWithAddr(addr string) StartOption {
	return func(o *startOptions) { o.addr = addr }
}

// StartWithListener serves on an existing listener; the address options are ignored.
func StartWithListener(ln net.Listener) StartOption {
	return func(o *startOptions) { o.listener = ln }
}

// EngineOption configures NewEngine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	logger        logger.LogManager
	recovery      bool
	gatherer      prometheus.Gatherer
	metricsPath   string
	addMiddleware []gin.HandlerFunc
}

// Engine option helpers
func WithLogger(l logger.LogManager) EngineOption {
	return func(e *engineOptions) { e.logger = l }
}

func WithRecovery(enabled bool) EngineOption {
	return func(e *engineOptions) { e.recovery = enabled }
}

// WithMetrics serves gatherer on path (DefaultMetricsPath when empty).
func WithMetrics(gatherer prometheus.Gatherer, path string) EngineOption {
	return func(e *engineOptions) {
		e.gatherer = gatherer
		e.metricsPath = path
	}
}

func WithMiddleware(m ...gin.HandlerFunc) EngineOption {
	return func(e *engineOptions) { e.addMiddleware = append(e.addMiddleware, m...) }
}
