package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/milan604/resilient-fetch/pkg/config"
	corehttp "github.com/milan604/resilient-fetch/pkg/http"
	"github.com/milan604/resilient-fetch/pkg/logger"
	"github.com/milan604/resilient-fetch/pkg/observability"
	"github.com/milan604/resilient-fetch/pkg/server"
	"github.com/milan604/resilient-fetch/pkg/version"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/trace"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2

	envPrefix  = "FETCH"
	tracerName = "github.com/milan604/resilient-fetch"

	keyLogLevel        = "log.level"
	keyLogEncoding     = "log.encoding"
	keyTracingInsecure = "tracing.insecure"
)

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"max-retries":       config.KeyMaxRetries,
	"warn-after":        config.KeyWarnAfter,
	"timeout":           config.KeyTimeout,
	"user-agent":        config.KeyUserAgent,
	"request-id-header": config.KeyRequestIDHeader,
	"metrics":           config.KeyMetricsEnabled,
	"metrics-addr":      config.KeyMetricsAddr,
	"tracing-endpoint":  config.KeyTracingEndpoint,
	"tracing-insecure":  keyTracingInsecure,
	"service-name":      config.KeyServiceName,
	"log-level":         keyLogLevel,
	"log-encoding":      keyLogEncoding,
}

type cliOptions struct {
	configFile  string
	method      string
	headers     []string
	data        string
	skipTrack   bool
	prettyJSON  bool
	include     bool
	serve       bool
	showVersion bool
}

func newFlagSet(opts *cliOptions, stderr io.Writer) *pflag.FlagSet {
	flags := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: fetch [flags] URL...\n\n%s", flags.FlagUsages())
	}

	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (yaml, json or toml)")
	flags.StringVarP(&opts.method, "method", "X", "", "request method (default fetch.default_method)")
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, `request header "Name: value", repeatable`)
	flags.StringVarP(&opts.data, "data", "d", "", "request body")
	flags.BoolVar(&opts.skipTrack, "skip-track", false, "do not record request durations")
	flags.BoolVar(&opts.prettyJSON, "json", false, "decode the body as JSON and pretty print it")
	flags.BoolVarP(&opts.include, "include", "i", false, "print the status line and headers")
	flags.BoolVar(&opts.serve, "serve", false, "keep serving metrics after fetching until interrupted")
	flags.BoolVarP(&opts.showVersion, "version", "v", false, "print version information and exit")

	// Defaults live in corehttp.DefaultSettings; these flags only override.
	flags.Int("max-retries", 0, "attempts per request, first one included")
	flags.Duration("warn-after", 0, "log a warning for requests slower than this")
	flags.Duration("timeout", 0, "per-attempt timeout")
	flags.String("user-agent", "", "User-Agent header")
	flags.String("request-id-header", "", "send a generated request id in this header")
	flags.Bool("metrics", false, "record request durations in Prometheus")
	flags.String("metrics-addr", "", "serve /metrics, /healthz and /version on host:port")
	flags.String("tracing-endpoint", "", "OTLP/HTTP collector host:port")
	flags.Bool("tracing-insecure", false, "export spans over plain HTTP")
	flags.String("service-name", "", "service name reported in spans")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-encoding", "", "console or json")
	return flags
}

func loadConfig(opts *cliOptions, flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.New(
		config.WithDefaults(map[string]interface{}{
			keyLogLevel:    "info",
			keyLogEncoding: "console",
		}),
		config.WithFile(opts.configFile),
		config.WithEnv(envPrefix),
	)
	if err != nil {
		return nil, err
	}
	for name, key := range flagKeys {
		if err := cfg.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts cliOptions
	flags := newFlagSet(&opts, stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.showVersion {
		out, _ := json.MarshalIndent(version.Info(), "", "  ")
		fmt.Fprintln(stdout, string(out))
		return exitOK
	}

	urls := flags.Args()
	if len(urls) == 0 && !opts.serve {
		flags.Usage()
		return exitUsage
	}

	cfg, err := loadConfig(&opts, flags)
	if err != nil {
		fmt.Fprintf(stderr, "fetch: %v\n", err)
		return exitUsage
	}

	log, err := logger.NewLogger(logger.LoggerOptions{
		Level:    cfg.GetStringD(keyLogLevel, "info"),
		Encoding: cfg.GetStringD(keyLogEncoding, "console"),
	})
	if err != nil {
		fmt.Fprintf(stderr, "fetch: %v\n", err)
		return exitUsage
	}
	defer func() { _ = log.Sync() }()

	settings, err := config.LoadFetchSettings(cfg, corehttp.DefaultSettings())
	if err != nil {
		log.ErrorF("%v", err)
		return exitUsage
	}
	log.DebugF("effective settings: %v", cfg.MaskedSettings())

	request, err := buildRequest(&opts)
	if err != nil {
		log.ErrorF("%v", err)
		return exitUsage
	}

	stopServer := func() {}
	if settings.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if _, err := observability.Init(reg); err != nil {
			log.ErrorF("failed to initialise metrics: %v", err)
			return exitFailed
		}
		if settings.MetricsAddr != "" {
			stopServer = serveMetrics(ctx, reg, settings.MetricsAddr, log)
		}
	}

	var tracer trace.Tracer
	if settings.TracingEndpoint != "" {
		tp, err := observability.NewTracerProvider(ctx, observability.TracingOptions{
			ServiceName:    settings.ServiceName,
			ServiceVersion: version.Version,
			Endpoint:       settings.TracingEndpoint,
			Insecure:       cfg.GetBoolD(keyTracingInsecure, false),
		}, log)
		if err != nil {
			log.ErrorF("failed to initialise tracing: %v", err)
			return exitFailed
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.WarnF("tracer shutdown: %v", err)
			}
		}()
		tracer = tp.Tracer(tracerName)
	}

	fetcher := corehttp.NewFetcher(
		corehttp.WithSettings(settings),
		corehttp.WithLogger(log),
		corehttp.WithTracer(tracer),
	)

	code := exitOK
	for _, u := range urls {
		resp, err := fetcher.Fetch(ctx, u, request)
		if err != nil {
			code = exitFailed
			continue
		}
		if err := printResponse(stdout, resp, &opts); err != nil {
			log.ErrorF("%v", err)
			code = exitFailed
		}
	}

	if opts.serve && settings.MetricsEnabled && settings.MetricsAddr != "" {
		<-ctx.Done()
	}
	stopServer()
	return code
}

// serveMetrics runs the metrics server in the background. The returned func
// shuts it down and waits for it.
func serveMetrics(ctx context.Context, gatherer prometheus.Gatherer, addr string, log logger.LogManager) func() {
	ctx, cancel := context.WithCancel(ctx)
	engine := server.NewEngine(
		server.WithLogger(log),
		server.WithRecovery(true),
		server.WithMetrics(gatherer, ""),
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Start(ctx, engine, server.StartWithAddr(addr), server.StartWithLogger(log)); err != nil {
			log.ErrorF("metrics server stopped: %v", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func buildRequest(opts *cliOptions) (corehttp.RequestOptions, error) {
	req := corehttp.RequestOptions{
		Method:           opts.method,
		SkipTrackRequest: opts.skipTrack,
	}
	if len(opts.headers) > 0 {
		req.Header = http.Header{}
		for _, h := range opts.headers {
			name, value, ok := strings.Cut(h, ":")
			if !ok || strings.TrimSpace(name) == "" {
				return corehttp.RequestOptions{}, fmt.Errorf("invalid header %q, want \"Name: value\"", h)
			}
			req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
		}
	}
	if opts.data != "" {
		req.Body = []byte(opts.data)
		if req.Method == "" {
			req.Method = http.MethodPost
		}
	}
	return req, nil
}

func printResponse(w io.Writer, resp *corehttp.BufferedResponse, opts *cliOptions) error {
	if opts.include {
		fmt.Fprintf(w, "HTTP %s\n", resp.Status)
		names := make([]string, 0, len(resp.Header))
		for name := range resp.Header {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, v := range resp.Header[name] {
				fmt.Fprintf(w, "%s: %s\n", name, v)
			}
		}
		fmt.Fprintln(w)
	}

	if opts.prettyJSON {
		var v any
		if err := resp.JSON(&v); err != nil {
			return err
		}
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(out))
		return nil
	}

	text := resp.Text()
	fmt.Fprint(w, text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(w)
	}
	return nil
}
