package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMetricsPath is where RegisterMetricsEndpoint mounts the handler when
// no path is given.
const DefaultMetricsPath = "/metrics"

// RegisterMetricsEndpoint exposes gatherer on path in the Prometheus text
// format. Collection errors are served with what could be gathered.
func RegisterMetricsEndpoint(engine *gin.Engine, path string, gatherer prometheus.Gatherer) {
	if path == "" {
		path = DefaultMetricsPath
	}
	handler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
	engine.GET(path, gin.WrapH(handler))
}
