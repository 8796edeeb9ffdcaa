package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/milan604/resilient-fetch/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// trackingBody counts reads and closes of a response body.
type trackingBody struct {
	r       io.Reader
	readErr error
	reads   atomic.Int32
	closes  atomic.Int32
}

func newTrackingBody(s string) *trackingBody {
	return &trackingBody{r: strings.NewReader(s)}
}

func (b *trackingBody) Read(p []byte) (int, error) {
	b.reads.Add(1)
	if b.readErr != nil {
		return 0, b.readErr
	}
	return b.r.Read(p)
}

func (b *trackingBody) Close() error {
	b.closes.Add(1)
	return nil
}

func newResponse(status int, body io.ReadCloser) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       body,
	}
}

func connResetError(rawURL string) error {
	return &url.Error{
		Op:  "Get",
		URL: rawURL,
		Err: &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET},
	}
}

func deadlineError(rawURL string) error {
	return &url.Error{Op: "Get", URL: rawURL, Err: context.DeadlineExceeded}
}

type fakeTimeoutError struct{}

func (fakeTimeoutError) Error() string   { return "i/o timeout" }
func (fakeTimeoutError) Timeout() bool   { return true }
func (fakeTimeoutError) Temporary() bool { return true }

type attemptResult struct {
	resp *http.Response
	err  error
}

// scriptedTransport replays results in order; the last one repeats.
type scriptedTransport struct {
	mu      sync.Mutex
	results []attemptResult
	calls   int
	seen    []RequestOptions
}

func (s *scriptedTransport) Do(_ context.Context, _ string, opts RequestOptions) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	s.calls++
	s.seen = append(s.seen, opts)
	r := s.results[idx]
	return r.resp, r.err
}

func (s *scriptedTransport) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stepClock advances by step on every reading.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func observedLogger() (logger.LogManager, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.NewFromZap(zap.New(core)), logs
}

var errBodyRead = errors.New("unexpected EOF while reading body")
