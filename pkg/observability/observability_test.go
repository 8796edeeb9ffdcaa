package observability

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/milan604/resilient-fetch/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestNewTracerProviderRequiresEndpoint(t *testing.T) {
	_, err := NewTracerProvider(context.Background(), TracingOptions{ServiceName: "svc"}, nil)
	assert.Error(t, err)
}

func TestNewTracerProviderInstallsGlobals(t *testing.T) {
	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})

	tp, err := NewTracerProvider(context.Background(), TracingOptions{
		ServiceName:    "resilient-fetch-test",
		ServiceVersion: "test",
		Endpoint:       "127.0.0.1:4318",
		Insecure:       true,
	}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	})

	assert.Same(t, tp, otel.GetTracerProvider())

	ctx, span := StartClientSpan(context.Background(), tp.Tracer("test"), http.MethodGet, "example.com", "https://example.com")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())

	header := http.Header{}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(header))
	assert.NotEmpty(t, header.Get("Traceparent"))
}
