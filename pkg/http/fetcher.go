package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/milan604/resilient-fetch/pkg/logger"
	"github.com/milan604/resilient-fetch/pkg/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultWarnAfter is the elapsed time from which a call is logged as slow.
	DefaultWarnAfter = 5 * time.Second

	// DefaultTimeout is the per-attempt timeout of the default transport.
	DefaultTimeout = 30 * time.Second
)

// Fetcher issues HTTP requests through a RetryingTransport, tracks their
// duration, warns about slow calls and returns fully buffered responses.
// A Fetcher is safe for concurrent use.
type Fetcher struct {
	retrying        *RetryingTransport
	tracker         observability.Tracker
	trackerSet      bool
	tracer          trace.Tracer
	logger          logger.LogManager
	defaults        RequestOptions
	warnAfter       time.Duration
	requestIDHeader string
	newRequestID    func() string
	now             func() time.Time
}

type fetcherConfig struct {
	transport  Transport
	timeout    time.Duration
	maxRetries int
	fetcher    Fetcher
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*fetcherConfig)

// WithTransport sets the single-attempt transport. It takes precedence over
// WithHTTPClient and WithTimeout.
func WithTransport(t Transport) FetcherOption {
	return func(c *fetcherConfig) {
		c.transport = t
	}
}

// WithHTTPClient sends requests with client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(c *fetcherConfig) {
		c.transport = NewNetTransport(client)
	}
}

// WithTimeout sets the per-attempt timeout of the default transport.
func WithTimeout(d time.Duration) FetcherOption {
	return func(c *fetcherConfig) {
		c.timeout = d
	}
}

// WithMaxRetries sets the attempt ceiling, first attempt included.
func WithMaxRetries(n int) FetcherOption {
	return func(c *fetcherConfig) {
		c.maxRetries = n
	}
}

// WithWarnAfter sets the slow-call threshold. Zero or less disables the warning.
func WithWarnAfter(d time.Duration) FetcherOption {
	return func(c *fetcherConfig) {
		c.fetcher.warnAfter = d
	}
}

// WithDefaultOptions replaces the request defaults every call is merged over.
func WithDefaultOptions(opts RequestOptions) FetcherOption {
	return func(c *fetcherConfig) {
		c.fetcher.defaults = mergeOptions(DefaultRequestOptions(), opts)
	}
}

// WithTracker sets the duration tracker. nil disables tracking. Without this
// option each call uses the tracker registered by observability.Init, if any,
// including an Init that runs after NewFetcher.
func WithTracker(t observability.Tracker) FetcherOption {
	return func(c *fetcherConfig) {
		c.fetcher.tracker = t
		c.fetcher.trackerSet = true
	}
}

// WithTracer creates one client span per Fetch with tracer.
func WithTracer(t trace.Tracer) FetcherOption {
	return func(c *fetcherConfig) {
		c.fetcher.tracer = t
	}
}

// WithLogger sets the logger for slow-call warnings and failures.
func WithLogger(l logger.LogManager) FetcherOption {
	return func(c *fetcherConfig) {
		if l != nil {
			c.fetcher.logger = l
		}
	}
}

// WithRequestIDHeader sends a generated request id in header when the
// request does not carry one already. The same id is used for every attempt.
func WithRequestIDHeader(header string) FetcherOption {
	return func(c *fetcherConfig) {
		c.fetcher.requestIDHeader = http.CanonicalHeaderKey(header)
	}
}

// NewFetcher creates a Fetcher. Without options it retries up to
// DefaultMaxRetries times over a client with DefaultTimeout, warns after
// DefaultWarnAfter, logs nothing and tracks with observability.DefaultTracker().
func NewFetcher(opts ...FetcherOption) *Fetcher {
	c := &fetcherConfig{
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		fetcher: Fetcher{
			logger:       logger.NewNop(),
			defaults:     DefaultRequestOptions(),
			warnAfter:    DefaultWarnAfter,
			newRequestID: uuid.NewString,
			now:          time.Now,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	transport := c.transport
	if transport == nil {
		transport = NewNetTransport(&http.Client{Timeout: c.timeout})
	}

	f := c.fetcher
	f.retrying = NewRetryingTransport(transport, c.maxRetries)
	return &f
}

// Fetch sends the request described by opts to rawURL and returns the
// buffered response. Transient transport failures are retried; failures are
// logged once and returned unchanged.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts RequestOptions) (*BufferedResponse, error) {
	merged := mergeOptions(f.defaults, opts)
	start := f.now()

	target, err := targetOf(rawURL)
	if err != nil {
		return nil, f.fail(ctx, rawURL, f.now().Sub(start), err)
	}

	var requestID string
	if f.requestIDHeader != "" {
		requestID = merged.Header.Get(f.requestIDHeader)
		if requestID == "" {
			requestID = f.newRequestID()
			merged.Header.Set(f.requestIDHeader, requestID)
		}
		ctx = logger.WithRequestID(ctx, requestID)
	}

	ctx, span := observability.StartClientSpan(ctx, f.tracer, merged.Method, target, rawURL)
	defer span.End()
	if requestID != "" {
		span.SetAttributes(observability.AttrRequestID.String(requestID))
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(merged.Header))

	resp, err := f.execute(ctx, rawURL, target, merged)
	elapsed := f.now().Sub(start)
	if f.warnAfter > 0 && elapsed >= f.warnAfter {
		f.logger.WarnFCtx(ctx, "slow request to %s took %.3fs", rawURL, elapsed.Seconds())
	}
	if err != nil {
		return nil, f.fail(ctx, rawURL, elapsed, err)
	}

	buffered, err := newBufferedResponse(rawURL, resp)
	if err != nil {
		return nil, f.fail(ctx, rawURL, elapsed, err)
	}
	observability.AddSpanAttributes(ctx, observability.AttrHTTPStatusCode.Int(buffered.StatusCode))
	return buffered, nil
}

// Get fetches rawURL with the default options.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*BufferedResponse, error) {
	return f.Fetch(ctx, rawURL, RequestOptions{})
}

// PostJSON marshals body and POSTs it to rawURL.
func (f *Fetcher) PostJSON(ctx context.Context, rawURL string, body any) (*BufferedResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return f.Fetch(ctx, rawURL, RequestOptions{
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   payload,
	})
}

// MaxRetries returns the attempt ceiling of the underlying RetryingTransport.
func (f *Fetcher) MaxRetries() int {
	return f.retrying.MaxRetries()
}

func (f *Fetcher) execute(ctx context.Context, rawURL, target string, opts RequestOptions) (*http.Response, error) {
	tracker := f.tracker
	if !f.trackerSet {
		tracker = observability.DefaultTracker()
	}
	if opts.SkipTrackRequest || tracker == nil {
		return f.retrying.Attempt(ctx, rawURL, opts)
	}

	var resp *http.Response
	err := tracker.Track(
		observability.Labels{Target: target, Method: opts.Method},
		func() error {
			var err error
			resp, err = f.retrying.Attempt(ctx, rawURL, opts)
			return err
		},
		func(err error, labels *observability.Labels) {
			if err != nil {
				labels.Error = errorLabel(err)
				return
			}
			labels.StatusCode = resp.StatusCode
		},
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// fail logs err once and returns it unchanged.
func (f *Fetcher) fail(ctx context.Context, rawURL string, elapsed time.Duration, err error) error {
	f.logger.ErrorFCtx(ctx, "request to %s failed after %.3fs: %v", rawURL, elapsed.Seconds(), err)
	observability.RecordSpanError(ctx, err)
	return err
}

// targetOf returns the host (with port, if any) of rawURL.
func targetOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid request url %q: scheme and host are required", rawURL)
	}
	return u.Host, nil
}
