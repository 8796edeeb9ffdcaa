package http

import (
	"net/http"
	"strings"
)

// RequestOptions configure one Fetch. The zero value means "use the fetcher
// defaults" for every field.
type RequestOptions struct {
	// Method defaults to GET.
	Method string
	// Header values are added over the default headers, key by key.
	Header http.Header
	// Body is sent on every attempt; it is never consumed.
	Body []byte
	// SkipTrackRequest opts this call out of duration tracking.
	SkipTrackRequest bool
}

// DefaultRequestOptions are the defaults a Fetcher starts with.
func DefaultRequestOptions() RequestOptions {
	return RequestOptions{
		Method: http.MethodGet,
		Header: http.Header{},
	}
}

// mergeOptions returns a new RequestOptions with opts laid over defaults.
// Neither argument is modified and the result shares no header map with them.
func mergeOptions(defaults, opts RequestOptions) RequestOptions {
	merged := RequestOptions{
		Method:           defaults.Method,
		Header:           defaults.Header.Clone(),
		Body:             defaults.Body,
		SkipTrackRequest: defaults.SkipTrackRequest || opts.SkipTrackRequest,
	}
	if merged.Header == nil {
		merged.Header = http.Header{}
	}
	if opts.Method != "" {
		merged.Method = strings.ToUpper(opts.Method)
	}
	if merged.Method == "" {
		merged.Method = http.MethodGet
	}
	for k, vv := range opts.Header {
		merged.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vv...)
	}
	if opts.Body != nil {
		merged.Body = opts.Body
	}
	return merged
}
