package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelTracker records durations into an OpenTelemetry Float64Histogram. It is
// the alternative to PrometheusTracker for services exporting metrics over OTLP.
type OTelTracker struct {
	duration metric.Float64Histogram
	now      func() time.Time
}

// NewOTelTracker creates the histogram on the meter named meterName from
// provider. A nil provider uses the global MeterProvider.
func NewOTelTracker(provider metric.MeterProvider, meterName string) (*OTelTracker, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	hist, err := meter.Float64Histogram(
		RequestDurationMetric,
		metric.WithDescription(requestDurationHelp),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s histogram: %w", RequestDurationMetric, err)
	}
	return &OTelTracker{duration: hist, now: time.Now}, nil
}

// Track implements Tracker.
func (t *OTelTracker) Track(labels Labels, action func() error, onResult func(err error, labels *Labels)) error {
	start := t.now()
	err := action()
	elapsed := t.now().Sub(start)

	if onResult != nil {
		onResult(err, &labels)
	}

	vals := labels.values()
	attrs := make([]attribute.KeyValue, len(LabelNames))
	for i, name := range LabelNames {
		attrs[i] = attribute.String(name, vals[i])
	}
	// Track has no caller context; the observation carries no exemplar.
	t.duration.Record(context.Background(), elapsed.Seconds(), metric.WithAttributes(attrs...))
	return err
}
