package http

import (
	"context"
	"errors"
	"net/http"
)

// ErrNoResponse is reported for an attempt whose transport returned neither a
// response nor an error.
var ErrNoResponse = errors.New("transport returned no response")

// DefaultMaxRetries is the number of attempts, including the first, made for
// one request when the failures are transient.
const DefaultMaxRetries = 3

// RetryingTransport retries transient transport failures immediately, up to
// a fixed number of attempts. Timeouts are never retried: a slow upstream
// would only get more load.
type RetryingTransport struct {
	transport  Transport
	maxRetries int
}

// NewRetryingTransport wraps transport. maxRetries below 1 is treated as 1.
func NewRetryingTransport(transport Transport, maxRetries int) *RetryingTransport {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryingTransport{transport: transport, maxRetries: maxRetries}
}

// MaxRetries returns the attempt ceiling.
func (r *RetryingTransport) MaxRetries() int {
	return r.maxRetries
}

// Attempt sends the request, retrying while the error is transient and the
// attempt count is below MaxRetries. The response of the first successful
// attempt is returned as is; otherwise the last attempt's error is returned
// unchanged.
func (r *RetryingTransport) Attempt(ctx context.Context, url string, opts RequestOptions) (*http.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		resp, err := r.transport.Do(ctx, url, opts)
		if err == nil && resp == nil {
			err = ErrNoResponse
		}
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if IsTimeout(err) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}
