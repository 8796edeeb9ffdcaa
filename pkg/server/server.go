package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/milan604/resilient-fetch/pkg/config"
	"github.com/milan604/resilient-fetch/pkg/logger"
	middleware "github.com/milan604/resilient-fetch/pkg/server/middleware"
	"github.com/milan604/resilient-fetch/pkg/version"

	"github.com/gin-gonic/gin"
)

// DefaultAddr is the listen address used when neither StartWithAddr nor
// metrics.addr is set.
const DefaultAddr = ":9090"

// NewEngine creates the Gin engine exposing /healthz, /version and, with
// WithMetrics, the Prometheus endpoint.
func NewEngine(opts ...EngineOption) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	var opt engineOptions
	for _, o := range opts {
		o(&opt)
	}

	logMgr := opt.logger
	if logMgr == nil {
		logMgr = logger.NewNop()
	}

	// Recovery first so it also covers the other middlewares.
	if opt.recovery {
		engine.Use(middleware.RecoveryMiddleware(logMgr))
	}
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.AccessLoggerMiddleware(logMgr))
	for _, m := range opt.addMiddleware {
		engine.Use(m)
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Info())
	})
	if opt.gatherer != nil {
		middleware.RegisterMetricsEndpoint(engine, opt.metricsPath, opt.gatherer)
	}

	return engine
}

func resolveAddress(so *startOptions) string {
	addr := so.addr
	if addr == "" && so.cfg != nil {
		addr = so.cfg.GetStringD(config.KeyMetricsAddr, "")
	}
	if addr == "" {
		addr = DefaultAddr
	}
	return addr
}

// Start serves engine until ctx is done, then shuts down gracefully. It
// returns early with the error if the listener fails.
func Start(ctx context.Context, engine *gin.Engine, opts ...StartOption) error {
	so := &startOptions{shutdownTimeout: 15 * time.Second}
	for _, o := range opts {
		o(so)
	}
	log := so.logger
	if log == nil {
		log = logger.NewNop()
	}

	ln := so.listener
	if ln == nil {
		addr := resolveAddress(so)
		var err error
		if ln, err = net.Listen("tcp", addr); err != nil {
			log.ErrorF("failed to listen on %s: %v", addr, err)
			return err
		}
	}

	srv := &http.Server{
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.InfoF("metrics server listening on %s", ln.Addr())
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		log.ErrorF("metrics server error: %v", err)
		return err
	case <-ctx.Done():
	}

	log.InfoF("shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), so.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorF("server shutdown error: %v", err)
		return err
	}
	log.InfoF("server stopped gracefully")
	return nil
}
