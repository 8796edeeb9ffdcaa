package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseSettings() FetchSettings {
	return FetchSettings{
		MaxRetries:    3,
		WarnAfter:     5 * time.Second,
		Timeout:       30 * time.Second,
		DefaultMethod: "GET",
		ServiceName:   "resilient-fetch",
	}
}

func TestLoadFetchSettingsKeepsBaseWhenUnset(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	s, err := LoadFetchSettings(cfg, baseSettings())
	require.NoError(t, err)
	assert.Equal(t, baseSettings(), s)
}

func TestLoadFetchSettingsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fetch.yaml")
	content := []byte(`
fetch:
  max_retries: 5
  warn_after: 2s
  default_method: post
  request_id_header: X-Request-ID
metrics:
  enabled: true
  addr: localhost:9090
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := New(WithFile(path))
	require.NoError(t, err)

	s, err := LoadFetchSettings(cfg, baseSettings())
	require.NoError(t, err)
	assert.Equal(t, 5, s.MaxRetries)
	assert.Equal(t, 2*time.Second, s.WarnAfter)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Equal(t, "POST", s.DefaultMethod)
	assert.Equal(t, "X-Request-ID", s.RequestIDHeader)
	assert.True(t, s.MetricsEnabled)
	assert.Equal(t, "localhost:9090", s.MetricsAddr)
}

func TestLoadFetchSettingsEnvOverridesDefaults(t *testing.T) {
	t.Setenv("RFTEST_FETCH_MAX_RETRIES", "7")
	t.Setenv("RFTEST_FETCH_WARN_AFTER", "750ms")

	cfg, err := New(
		WithDefaults(map[string]interface{}{KeyMaxRetries: 2}),
		WithEnv("RFTEST"),
	)
	require.NoError(t, err)

	s, err := LoadFetchSettings(cfg, baseSettings())
	require.NoError(t, err)
	assert.Equal(t, 7, s.MaxRetries)
	assert.Equal(t, 750*time.Millisecond, s.WarnAfter)
}

func TestLoadFetchSettingsFromFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int(KeyMaxRetries, 3, "")
	flags.String(KeyDefaultMethod, "GET", "")
	require.NoError(t, flags.Parse([]string{"--fetch.max_retries=1"}))

	cfg, err := New(WithPFlags(flags))
	require.NoError(t, err)

	s, err := LoadFetchSettings(cfg, baseSettings())
	require.NoError(t, err)
	assert.Equal(t, 1, s.MaxRetries)
	assert.Equal(t, "GET", s.DefaultMethod)
}

func TestLoadFetchSettingsRejectsInvalidValues(t *testing.T) {
	cfg, err := New(WithDefaults(map[string]interface{}{
		KeyMaxRetries:    0,
		KeyDefaultMethod: "FETCH",
	}))
	require.NoError(t, err)

	_, err = LoadFetchSettings(cfg, baseSettings())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxRetries")
	assert.Contains(t, err.Error(), "DefaultMethod")
}

func TestValidateRequired(t *testing.T) {
	cfg, err := New(WithDefaults(map[string]interface{}{"service.name": "svc"}))
	require.NoError(t, err)

	assert.NoError(t, cfg.ValidateRequired("service.name"))
	err = cfg.ValidateRequired("service.name", "tracing.endpoint")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracing.endpoint")
}

func TestMaskedSettings(t *testing.T) {
	cfg, err := New(
		WithDefaults(map[string]interface{}{
			"tracing.endpoint": "collector:4318",
			"tracing.token":    "s3cr3t",
		}),
		WithSensitiveKeys("tracing.token"),
	)
	require.NoError(t, err)

	masked := cfg.MaskedSettings()
	assert.Equal(t, "collector:4318", masked["tracing.endpoint"])
	assert.Equal(t, "***REDACTED***", masked["tracing.token"])
}

func TestTypedGettersFallBack(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "def", cfg.GetStringD("missing", "def"))
	assert.Equal(t, 4, cfg.GetIntD("missing", 4))
	assert.True(t, cfg.GetBoolD("missing", true))
	assert.Equal(t, time.Second, cfg.GetDurationD("missing", time.Second))
}
