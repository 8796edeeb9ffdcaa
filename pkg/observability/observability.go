package observability

import (
	"context"
	"fmt"

	"github.com/milan604/resilient-fetch/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

// TracingOptions configure NewTracerProvider.
type TracingOptions struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint is the OTLP/HTTP collector host:port.
	Endpoint string
	Insecure bool
}

// NewTracerProvider builds an OTLP/HTTP exporting tracer provider, installs it
// and the W3C propagators globally, and returns it for shutdown.
func NewTracerProvider(ctx context.Context, opts TracingOptions, log logger.LogManager) (*sdktrace.TracerProvider, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("tracing endpoint is required")
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "unknown-service"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(opts.ServiceName),
			semconv.ServiceVersionKey.String(opts.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if log != nil {
		log.InfoF("tracing initialized: service=%s, version=%s, endpoint=%s",
			opts.ServiceName, opts.ServiceVersion, opts.Endpoint)
	}
	return tp, nil
}
