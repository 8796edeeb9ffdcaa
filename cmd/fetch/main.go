// Command fetch issues HTTP requests through the resilient fetcher and prints
// the responses. It can expose the request duration histogram on /metrics
// and export client spans over OTLP/HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
