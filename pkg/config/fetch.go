package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gvalidator "github.com/go-playground/validator/v10"
)

// Keys read by LoadFetchSettings.
const (
	KeyMaxRetries      = "fetch.max_retries"
	KeyWarnAfter       = "fetch.warn_after"
	KeyTimeout         = "fetch.timeout"
	KeyDefaultMethod   = "fetch.default_method"
	KeyUserAgent       = "fetch.user_agent"
	KeyRequestIDHeader = "fetch.request_id_header"
	KeyMetricsEnabled  = "metrics.enabled"
	KeyMetricsAddr     = "metrics.addr"
	KeyTracingEndpoint = "tracing.endpoint"
	KeyServiceName     = "service.name"
)

// FetchSettings is the tunable part of a fetcher plus the optional
// observability endpoints used by the CLI.
type FetchSettings struct {
	MaxRetries      int           `validate:"min=1,max=10"`
	WarnAfter       time.Duration `validate:"gte=0"`
	Timeout         time.Duration `validate:"gte=0"`
	DefaultMethod   string        `validate:"required,oneof=GET HEAD POST PUT PATCH DELETE OPTIONS"`
	UserAgent       string
	RequestIDHeader string `validate:"omitempty,printascii"`
	MetricsEnabled  bool
	MetricsAddr     string `validate:"omitempty,hostname_port"`
	TracingEndpoint string `validate:"omitempty,hostname_port"`
	ServiceName     string `validate:"required"`
}

var settingsValidator = gvalidator.New(gvalidator.WithRequiredStructEnabled())

// LoadFetchSettings overlays the values present in c on top of base and
// validates the result.
func LoadFetchSettings(c *Config, base FetchSettings) (FetchSettings, error) {
	s := FetchSettings{
		MaxRetries:      c.GetIntD(KeyMaxRetries, base.MaxRetries),
		WarnAfter:       c.GetDurationD(KeyWarnAfter, base.WarnAfter),
		Timeout:         c.GetDurationD(KeyTimeout, base.Timeout),
		DefaultMethod:   strings.ToUpper(c.GetStringD(KeyDefaultMethod, base.DefaultMethod)),
		UserAgent:       c.GetStringD(KeyUserAgent, base.UserAgent),
		RequestIDHeader: c.GetStringD(KeyRequestIDHeader, base.RequestIDHeader),
		MetricsEnabled:  c.GetBoolD(KeyMetricsEnabled, base.MetricsEnabled),
		MetricsAddr:     c.GetStringD(KeyMetricsAddr, base.MetricsAddr),
		TracingEndpoint: c.GetStringD(KeyTracingEndpoint, base.TracingEndpoint),
		ServiceName:     c.GetStringD(KeyServiceName, base.ServiceName),
	}
	if err := s.Validate(); err != nil {
		return FetchSettings{}, err
	}
	return s, nil
}

// Validate reports every invalid field in one error.
func (s FetchSettings) Validate() error {
	err := settingsValidator.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs gvalidator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid fetch settings: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("invalid fetch settings: %s", strings.Join(msgs, "; "))
}
