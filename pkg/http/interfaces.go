package http

import (
	"context"
)

// HTTPClient is the fetching surface of Fetcher, for consumers that want to
// substitute it in tests.
type HTTPClient interface {
	// Fetch sends the request described by opts.
	Fetch(ctx context.Context, url string, opts RequestOptions) (*BufferedResponse, error)

	// Get performs a GET request with the default options.
	Get(ctx context.Context, url string) (*BufferedResponse, error)

	// PostJSON performs a POST request with a JSON body.
	PostJSON(ctx context.Context, url string, body any) (*BufferedResponse, error)
}

// Ensure Fetcher implements HTTPClient interface.
var _ HTTPClient = (*Fetcher)(nil)
