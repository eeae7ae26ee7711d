package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Options configures error reporting. An empty DSN disables it.
type Options struct {
	DSN            string
	Env            string
	ServiceName    string
	ServiceVersion string
}

// Init initializes the Sentry client. With an empty DSN it does nothing and
// every capture helper below becomes a no-op.
func Init(opts Options) error {
	if opts.DSN == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Env,
		ServerName:       opts.ServiceName,
		Release:          opts.ServiceVersion,
		AttachStacktrace: true,
		// Tracing goes through OpenTelemetry.
		TracesSampleRate: 0.0,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	return nil
}

// Flush waits for pending events. Call during shutdown.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// HubFromContext returns the request or job hub, falling back to the
// process hub.
func HubFromContext(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// CaptureError reports err on the hub bound to ctx.
func CaptureError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	HubFromContext(ctx).CaptureException(err)
}

// RecoverGoroutine is deferred at the top of background goroutines so a
// panic is reported instead of killing the process.
func RecoverGoroutine(ctx context.Context) {
	if r := recover(); r != nil {
		HubFromContext(ctx).Recover(r)
	}
}
