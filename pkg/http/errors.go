package http

import (
	"context"
	"errors"
	"fmt"
)

type timeoutError interface {
	Timeout() bool
}

// IsTimeout reports whether err (or anything it wraps) is a timeout:
// context.DeadlineExceeded, or an error whose Timeout method returns true,
// such as *url.Error and net.Error.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te timeoutError
	return errors.As(err, &te) && te.Timeout()
}

// MalformedBodyError is returned by BufferedResponse.JSON when the body is
// not valid JSON.
type MalformedBodyError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *MalformedBodyError) Error() string {
	return fmt.Sprintf("invalid json response body at %s (status %d): %v: %s", e.URL, e.StatusCode, e.Err, e.Body)
}

func (e *MalformedBodyError) Unwrap() error {
	return e.Err
}

// errorLabel classifies err for the metrics error label.
func errorLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case IsTimeout(err):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "transport"
	}
}
