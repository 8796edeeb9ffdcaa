package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// Transport issues exactly one HTTP request attempt.
type Transport interface {
	Do(ctx context.Context, url string, opts RequestOptions) (*http.Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, url string, opts RequestOptions) (*http.Response, error)

// Do calls f.
func (f TransportFunc) Do(ctx context.Context, url string, opts RequestOptions) (*http.Response, error) {
	return f(ctx, url, opts)
}

// NetTransport is the Transport backed by a *http.Client.
type NetTransport struct {
	Client *http.Client
}

// NewNetTransport returns a NetTransport using client, or http.DefaultClient when nil.
func NewNetTransport(client *http.Client) *NetTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &NetTransport{Client: client}
}

// Do builds a fresh request from opts and sends it.
func (t *NetTransport) Do(ctx context.Context, url string, opts RequestOptions) (*http.Response, error) {
	var body io.Reader
	if opts.Body != nil {
		body = bytes.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, url, body)
	if err != nil {
		return nil, err
	}
	for k, vv := range opts.Header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if opts.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	return client.Do(req)
}
