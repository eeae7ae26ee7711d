package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dictameal/backend/internal/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTransport is the base transport used by the instrumented client.
var DefaultTransport = http.DefaultTransport

type contextKey string

const providerKey contextKey = "httpclient.provider"

// WithProvider tags outgoing requests made with ctx with a provider name
// (ollama, duckduckgo, whisper...). The name shows up in span names, span
// attributes and the external API metrics.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, providerKey, provider)
}

// Provider returns the provider name stored by WithProvider.
func Provider(ctx context.Context) string {
	p, _ := ctx.Value(providerKey).(string)
	return p
}

type providerTransport struct {
	base http.RoundTripper
}

func (t *providerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	span := trace.SpanFromContext(ctx)
	provider := Provider(ctx)
	if provider == "" {
		provider = req.URL.Host
	} else {
		span.SetAttributes(attribute.String("provider", provider))
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start).Seconds()

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	metrics.ExternalAPICallsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	))
	metrics.ExternalAPIDuration.Record(ctx, elapsed, metric.WithAttributes(
		attribute.String("provider", provider),
	))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP status %d", resp.StatusCode))
	}
	return resp, nil
}

func newOtelTransport(base http.RoundTripper) http.RoundTripper {
	return otelhttp.NewTransport(&providerTransport{base: base},
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if provider := Provider(r.Context()); provider != "" {
				return fmt.Sprintf("%s: %s %s", provider, r.Method, r.URL.Path)
			}
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
	)
}

// New returns an http.Client with OpenTelemetry instrumentation and the given
// overall timeout. Zero means no client-side timeout; callers then rely on
// their context deadline.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: newOtelTransport(DefaultTransport),
		Timeout:   timeout,
	}
}
