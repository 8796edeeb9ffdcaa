package http

import (
	"net/http"

	"github.com/milan604/resilient-fetch/pkg/config"
	"github.com/milan604/resilient-fetch/pkg/version"
)

// DefaultSettings returns the built-in fetch settings, used as the base for
// config.LoadFetchSettings.
func DefaultSettings() config.FetchSettings {
	return config.FetchSettings{
		MaxRetries:    DefaultMaxRetries,
		WarnAfter:     DefaultWarnAfter,
		Timeout:       DefaultTimeout,
		DefaultMethod: http.MethodGet,
		UserAgent:     version.UserAgent(),
		ServiceName:   "resilient-fetch",
	}
}

// WithSettings applies loaded settings. Options given after it still win.
func WithSettings(s config.FetchSettings) FetcherOption {
	return func(c *fetcherConfig) {
		c.maxRetries = s.MaxRetries
		c.timeout = s.Timeout
		c.fetcher.warnAfter = s.WarnAfter

		defaults := RequestOptions{Method: s.DefaultMethod, Header: http.Header{}}
		if s.UserAgent != "" {
			defaults.Header.Set("User-Agent", s.UserAgent)
		}
		c.fetcher.defaults = mergeOptions(DefaultRequestOptions(), defaults)

		if s.RequestIDHeader != "" {
			c.fetcher.requestIDHeader = http.CanonicalHeaderKey(s.RequestIDHeader)
		}
	}
}
