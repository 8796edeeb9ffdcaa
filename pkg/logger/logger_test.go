package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerFallsBackToInfoOnBadLevel(t *testing.T) {
	l, err := NewLogger(LoggerOptions{Level: "nonsense", Encoding: "json", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)

	require.NoError(t, l.SetLogLevel("warn"))
	assert.Error(t, l.SetLogLevel("not-a-level"))
}

func TestNewLoggerRejectsUnknownEncoding(t *testing.T) {
	_, err := NewLogger(LoggerOptions{Level: "info", Encoding: "xml"})
	assert.Error(t, err)
}

func TestFormattedMethods(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewFromZap(zap.New(core))

	l.WarnF("slow request to %s took %.1fs", "https://example.com", 6.0)
	l.ErrorF("request failed: %v", "boom")

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "slow request to https://example.com took 6.0s", entries[0].Message)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, "request failed: boom", entries[1].Message)
}

func TestCtxMethodsAttachRequestID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewFromZap(zap.New(core))

	ctx := WithRequestID(context.Background(), "req-42")
	l.WarnFCtx(ctx, "hello %d", 1)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])

	id, ok := RequestIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-42", id)

	_, ok = RequestIDFromContext(context.Background())
	assert.False(t, ok)
}

func TestRegisterContextKey(t *testing.T) {
	type tenantKey struct{}
	RegisterContextKey(tenantKey{}, "tenant")
	defer UnregisterContextKey(tenantKey{})

	core, logs := observer.New(zap.DebugLevel)
	l := NewFromZap(zap.New(core))

	ctx := context.WithValue(context.Background(), tenantKey{}, "acme")
	l.InfoFCtx(ctx, "scoped")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "acme", logs.All()[0].ContextMap()["tenant"])
}

func TestWithAddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewFromZap(zap.New(core)).With("component", "fetch")

	l.Info("ready")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "fetch", logs.All()[0].ContextMap()["component"])
}

func TestNopDiscards(t *testing.T) {
	l := NewNop()
	l.ErrorF("ignored %d", 1)
	assert.NoError(t, l.SetLogLevel("debug"))
}
