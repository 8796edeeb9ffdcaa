package observability

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// RequestDurationMetric is the histogram registered by NewPrometheusTracker.
	RequestDurationMetric = "outbound_http_request_duration_seconds"
	requestDurationHelp   = "Duration of outbound HTTP requests including retries, in seconds"
)

// PrometheusTracker records durations into a prometheus HistogramVec.
type PrometheusTracker struct {
	duration *prometheus.HistogramVec
	now      func() time.Time
}

// PrometheusOption customises NewPrometheusTracker.
type PrometheusOption func(*prometheusOptions)

type prometheusOptions struct {
	name    string
	buckets []float64
}

// WithMetricName overrides RequestDurationMetric.
func WithMetricName(name string) PrometheusOption {
	return func(o *prometheusOptions) { o.name = name }
}

// WithBuckets overrides DefaultBuckets.
func WithBuckets(buckets ...float64) PrometheusOption {
	return func(o *prometheusOptions) { o.buckets = buckets }
}

// NewPrometheusTracker creates the duration histogram and registers it with reg.
// A nil reg uses prometheus.DefaultRegisterer. If an identical collector is
// already registered it is reused.
func NewPrometheusTracker(reg prometheus.Registerer, opts ...PrometheusOption) (*PrometheusTracker, error) {
	o := prometheusOptions{name: RequestDurationMetric, buckets: DefaultBuckets}
	for _, opt := range opts {
		opt(&o)
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	hist := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    o.name,
			Help:    requestDurationHelp,
			Buckets: o.buckets,
		},
		LabelNames,
	)
	if err := reg.Register(hist); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}
		hist = existing
	}

	return &PrometheusTracker{duration: hist, now: time.Now}, nil
}

// Track implements Tracker.
func (t *PrometheusTracker) Track(labels Labels, action func() error, onResult func(err error, labels *Labels)) error {
	start := t.now()
	err := action()
	elapsed := t.now().Sub(start)

	if onResult != nil {
		onResult(err, &labels)
	}
	t.duration.WithLabelValues(labels.values()...).Observe(elapsed.Seconds())
	return err
}

// Collector exposes the underlying histogram, mainly for tests and custom registries.
func (t *PrometheusTracker) Collector() *prometheus.HistogramVec {
	return t.duration
}

var (
	initOnce       sync.Once
	initErr        error
	defaultTracker atomic.Pointer[PrometheusTracker]
)

// Init registers the process-wide tracker with reg. It is meant to be called
// once at startup; later calls return the tracker (or error) of the first one.
func Init(reg prometheus.Registerer, opts ...PrometheusOption) (Tracker, error) {
	initOnce.Do(func() {
		t, err := NewPrometheusTracker(reg, opts...)
		if err != nil {
			initErr = err
			return
		}
		defaultTracker.Store(t)
	})
	if initErr != nil {
		return nil, initErr
	}
	return defaultTracker.Load(), nil
}

// DefaultTracker returns the tracker registered by Init, or nil before Init.
// The nil interface disables tracking in consumers.
func DefaultTracker() Tracker {
	if t := defaultTracker.Load(); t != nil {
		return t
	}
	return nil
}
