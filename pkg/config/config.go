package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the wrapper around viper with extra helpers.
type Config struct {
	*viper.Viper

	sensitiveKeys map[string]struct{}
	fileSet       bool
}

// Option is a functional option for New.
type Option func(*Config) error

// New creates a Config instance. Options are applied in order, then the
// configured file (if any) is read. Example:
//
//	cfg, err := config.New(
//	  config.WithDefaults(map[string]interface{}{"fetch.max_retries": 3}),
//	  config.WithFile("fetch.yaml"),
//	  config.WithEnv("FETCH"),
//	  config.WithPFlags(flags),
//	)
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		Viper:         viper.New(),
		sensitiveKeys: map[string]struct{}{},
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("config: applying option failed: %w", err)
		}
	}

	if err := cfg.readConfigIfPossible(); err != nil {
		return nil, fmt.Errorf("config: read config: %w", err)
	}

	return cfg, nil
}

func (c *Config) readConfigIfPossible() error {
	if !c.fileSet {
		return nil
	}
	err := c.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		// name/path lookup is best effort; an explicit file must exist
		return nil
	}
	return err
}

/* ---------------------------
   Options
----------------------------*/

// WithDefaults sets default values (applied first)
func WithDefaults(defaults map[string]interface{}) Option {
	return func(c *Config) error {
		for k, v := range defaults {
			c.SetDefault(k, v)
		}
		return nil
	}
}

// WithFile sets an exact config file; its extension determines the format.
func WithFile(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		c.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
			c.SetConfigType(ext)
		}
		c.fileSet = true
		return nil
	}
}

// WithConfigNamePaths sets config name (without ext) and search paths.
func WithConfigNamePaths(name string, paths ...string) Option {
	return func(c *Config) error {
		if name == "" {
			return nil
		}
		c.SetConfigName(name)
		if len(paths) == 0 {
			paths = []string{".", "./config", "/etc/resilient-fetch"}
		}
		for _, p := range paths {
			c.AddConfigPath(p)
		}
		c.fileSet = true
		return nil
	}
}

// WithEnv enables environment variable overrides.
// prefix = "FETCH" means FETCH_FETCH_MAX_RETRIES overrides fetch.max_retries.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		if prefix != "" {
			c.SetEnvPrefix(prefix)
		}
		c.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		c.AutomaticEnv()
		return nil
	}
}

// WithPFlags binds a pflag.FlagSet to viper. nil binds pflag.CommandLine.
// Flags should be named after their config keys (e.g. "fetch.max_retries").
func WithPFlags(flags *pflag.FlagSet) Option {
	return func(c *Config) error {
		if flags == nil {
			flags = pflag.CommandLine
		}
		return c.BindPFlags(flags)
	}
}

// WithSensitiveKeys registers keys which should be redacted when printing/logging.
func WithSensitiveKeys(keys ...string) Option {
	return func(c *Config) error {
		for _, k := range keys {
			c.sensitiveKeys[strings.ToLower(k)] = struct{}{}
		}
		return nil
	}
}

/* ---------------------------
   Typed getters with defaults
----------------------------*/

// GetStringD returns string or def
func (c *Config) GetStringD(key, def string) string {
	if val := c.GetString(key); val != "" {
		return val
	}
	return def
}

// GetIntD returns int or def
func (c *Config) GetIntD(key string, def int) int {
	if c.IsSet(key) {
		return c.GetInt(key)
	}
	return def
}

// GetBoolD returns bool or def
func (c *Config) GetBoolD(key string, def bool) bool {
	if c.IsSet(key) {
		return c.GetBool(key)
	}
	return def
}

// GetDurationD returns time.Duration or def
func (c *Config) GetDurationD(key string, def time.Duration) time.Duration {
	if c.IsSet(key) {
		return c.GetDuration(key)
	}
	return def
}

/* ---------------------------
   Validation & Utilities
----------------------------*/

// ValidateRequired ensures keys exist and are non-empty.
func (c *Config) ValidateRequired(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if !c.IsSet(k) || c.GetString(k) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required keys: %v", strings.Join(missing, ", "))
	}
	return nil
}

// MaskedSettings returns every effective key (flattened, dot separated) with
// sensitive values redacted.
func (c *Config) MaskedSettings() map[string]interface{} {
	redacted := map[string]interface{}{}
	for _, k := range c.AllKeys() {
		if _, ok := c.sensitiveKeys[k]; ok {
			redacted[k] = "***REDACTED***"
			continue
		}
		redacted[k] = c.Get(k)
	}
	return redacted
}
