package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Config describes where and how telemetry is exported.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Env            string
	// Endpoint is the OTLP/HTTP base URL, e.g. http://localhost:4318 or
	// https://otlp.example.com/otlp. Empty disables export.
	Endpoint string
	Headers  map[string]string
	// MetricInterval defaults to 30s.
	MetricInterval time.Duration
}

// Endpoint is an OTLP/HTTP collector address split the way the exporters
// want it: host[:port] plus a per-signal URL path.
type Endpoint struct {
	Host       string
	Insecure   bool
	TracesPath string
	LogsPath   string
	MetricPath string
}

// ParseEndpoint splits raw into host and signal paths. A base path such as
// /otlp is kept as prefix; a trailing /v1/<signal> is dropped.
func ParseEndpoint(raw string) Endpoint {
	ep := Endpoint{}
	host := raw
	switch {
	case strings.HasPrefix(host, "https://"):
		host = strings.TrimPrefix(host, "https://")
	case strings.HasPrefix(host, "http://"):
		host = strings.TrimPrefix(host, "http://")
		ep.Insecure = true
	}

	basePath := ""
	if idx := strings.Index(host, "/"); idx > 0 {
		basePath = host[idx:]
		host = host[:idx]
	}
	for _, suffix := range []string{"/v1/traces", "/v1/logs", "/v1/metrics"} {
		basePath = strings.TrimSuffix(basePath, suffix)
	}
	basePath = strings.TrimSuffix(basePath, "/")

	ep.Host = host
	ep.TracesPath = basePath + "/v1/traces"
	ep.LogsPath = basePath + "/v1/logs"
	ep.MetricPath = basePath + "/v1/metrics"
	return ep
}

// ParseHeaders reads the OTEL_EXPORTER_OTLP_HEADERS format: comma separated
// key=value pairs. Malformed pairs are skipped.
func ParseHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers
}

// Setup installs the global propagator and, when an endpoint is configured,
// trace, log and metric providers exporting over OTLP/HTTP. The returned
// function flushes and stops every provider.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)
	if err != nil {
		return nil, err
	}

	ep := ParseEndpoint(cfg.Endpoint)

	traceOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(ep.Host),
		otlptracehttp.WithURLPath(ep.TracesPath),
	}
	logOpts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(ep.Host),
		otlploghttp.WithURLPath(ep.LogsPath),
	}
	metricOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(ep.Host),
		otlpmetrichttp.WithURLPath(ep.MetricPath),
	}
	if len(cfg.Headers) > 0 {
		traceOpts = append(traceOpts, otlptracehttp.WithHeaders(cfg.Headers))
		logOpts = append(logOpts, otlploghttp.WithHeaders(cfg.Headers))
		metricOpts = append(metricOpts, otlpmetrichttp.WithHeaders(cfg.Headers))
	}
	if ep.Insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		logOpts = append(logOpts, otlploghttp.WithInsecure())
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}

	traceExporter, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return nil, err
	}
	logExporter, err := otlploghttp.New(ctx, logOpts...)
	if err != nil {
		return nil, err
	}
	metricExporter, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		return nil, err
	}

	interval := cfg.MetricInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	// Go runtime metrics (GC, heap, goroutines) ride on the same exporter.
	if err := runtime.Start(runtime.WithMeterProvider(mp)); err != nil {
		slog.Warn("failed to start runtime metrics", "error", err)
	}

	slog.Info("telemetry initialized",
		"endpoint", ep.Host,
		"trace_path", ep.TracesPath,
		"insecure", ep.Insecure,
	)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), lp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// Tracer returns a tracer with the given name
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
