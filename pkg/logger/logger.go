package logger

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "requestID"
)

// LogManager is the leveled logger used by the fetcher, the server and the CLI.
type LogManager interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	DebugF(format string, args ...any)
	InfoF(format string, args ...any)
	WarnF(format string, args ...any)
	ErrorF(format string, args ...any)

	DebugFCtx(ctx context.Context, format string, args ...any)
	InfoFCtx(ctx context.Context, format string, args ...any)
	WarnFCtx(ctx context.Context, format string, args ...any)
	ErrorFCtx(ctx context.Context, format string, args ...any)

	With(keyValues ...any) LogManager

	Sync() error
	SetLogLevel(level string) error
}

// LoggerOptions for custom configuration
type LoggerOptions struct {
	Level        string
	Encoding     string // "json" or "console"
	OutputPaths  []string
	ErrorPaths   []string
	EnableCaller bool
	EnableStack  bool
	TimeFormat   string
}

// NewLogger builds a zap-backed LogManager from opts.
func NewLogger(opts LoggerOptions) (LogManager, error) {
	atomicLevel := zap.NewAtomicLevel()
	if err := atomicLevel.UnmarshalText([]byte(opts.Level)); err != nil {
		atomicLevel.SetLevel(zap.InfoLevel)
	}

	timeFormat := opts.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:       "time",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.TimeEncoderOfLayout(timeFormat),
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}
	if opts.EnableCaller {
		encoderCfg.CallerKey = "caller"
	}

	if opts.Encoding == "" {
		opts.Encoding = "console"
	}
	if opts.Encoding == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if len(opts.OutputPaths) == 0 {
		opts.OutputPaths = []string{"stderr"}
	}
	if len(opts.ErrorPaths) == 0 {
		opts.ErrorPaths = []string{"stderr"}
	}

	cfg := zap.Config{
		Level:            atomicLevel,
		Development:      opts.Level == "debug",
		Encoding:         opts.Encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      opts.OutputPaths,
		ErrorOutputPaths: opts.ErrorPaths,
	}

	zapOpts := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
	if opts.EnableStack {
		zapOpts = []zap.Option{zap.AddStacktrace(zap.WarnLevel)}
	}

	zapLogger, err := cfg.Build(zapOpts...)
	if err != nil {
		return nil, err
	}

	return &logger{
		Log:         zapLogger.Sugar(),
		atomicLevel: atomicLevel,
	}, nil
}

// NewFromZap wraps an existing zap logger. Level filtering stays with z's core,
// so SetLogLevel on the result has no effect.
func NewFromZap(z *zap.Logger) LogManager {
	return &logger{
		Log:         z.Sugar(),
		atomicLevel: zap.NewAtomicLevelAt(zap.DebugLevel),
	}
}

// NewNop returns a LogManager that discards everything.
func NewNop() LogManager {
	return NewFromZap(zap.NewNop())
}

// MustNewDefaultLogger creates a console logger at info level or exits.
func MustNewDefaultLogger() LogManager {
	l, err := NewLogger(LoggerOptions{
		Level:    "info",
		Encoding: "console",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	return l
}
