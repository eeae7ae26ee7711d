package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/dictameal/backend"

// New creates the process logger. Production gets JSON on stdout, every
// other environment gets text. Records are mirrored to the global
// OpenTelemetry LoggerProvider, which is a no-op until telemetry is set up.
func New(env, level string) *slog.Logger {
	return NewWithWriter(os.Stdout, env, level, global.GetLoggerProvider().Logger(scopeName))
}

// NewWithWriter is New with an explicit destination and OTel logger.
func NewWithWriter(w io.Writer, env, level string, otelLogger log.Logger) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level, env)}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(&otelHandler{handler: handler, logger: otelLogger})
}

// ParseLevel maps LOG_LEVEL to a slog level. Unset means info in production
// and debug elsewhere.
func ParseLevel(level, env string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if env == "production" {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// WithTraceContext returns a slog.Attr containing trace_id and span_id if available in the context.
func WithTraceContext(ctx context.Context) slog.Attr {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return slog.Attr{}
	}
	sc := span.SpanContext()
	return slog.Group("trace",
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}

// otelHandler writes to the wrapped handler and then emits the same record
// as an OTel log record. Attributes bound with WithAttrs and group prefixes
// are carried over so both sinks see the same keys.
type otelHandler struct {
	handler slog.Handler
	logger  log.Logger
	attrs   []log.KeyValue
	prefix  string
}

func (h *otelHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.handler.Enabled(ctx, l)
}

func (h *otelHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.handler.Handle(ctx, r); err != nil {
		return err
	}
	if h.logger == nil {
		return nil
	}

	var rec log.Record
	rec.SetTimestamp(r.Time)
	rec.SetBody(log.StringValue(r.Message))
	rec.SetSeverity(severity(r.Level))
	rec.SetSeverityText(r.Level.String())
	rec.AddAttributes(h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		if kv, ok := h.convert(a); ok {
			rec.AddAttributes(kv)
		}
		return true
	})

	h.logger.Emit(ctx, rec)
	return nil
}

func (h *otelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &otelHandler{
		handler: h.handler.WithAttrs(attrs),
		logger:  h.logger,
		attrs:   append([]log.KeyValue(nil), h.attrs...),
		prefix:  h.prefix,
	}
	for _, a := range attrs {
		if kv, ok := h.convert(a); ok {
			next.attrs = append(next.attrs, kv)
		}
	}
	return next
}

func (h *otelHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &otelHandler{
		handler: h.handler.WithGroup(name),
		logger:  h.logger,
		attrs:   h.attrs,
		prefix:  h.prefix + name + ".",
	}
}

func (h *otelHandler) convert(a slog.Attr) (log.KeyValue, bool) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return log.KeyValue{}, false
	}
	return log.KeyValue{Key: h.prefix + a.Key, Value: toOTelValue(a.Value)}, true
}

func severity(l slog.Level) log.Severity {
	switch {
	case l >= slog.LevelError:
		return log.SeverityError
	case l >= slog.LevelWarn:
		return log.SeverityWarn
	case l >= slog.LevelInfo:
		return log.SeverityInfo
	default:
		return log.SeverityDebug
	}
}

func toOTelValue(v slog.Value) log.Value {
	switch v.Kind() {
	case slog.KindString:
		return log.StringValue(v.String())
	case slog.KindInt64:
		return log.Int64Value(v.Int64())
	case slog.KindUint64:
		return log.Int64Value(int64(v.Uint64()))
	case slog.KindBool:
		return log.BoolValue(v.Bool())
	case slog.KindFloat64:
		return log.Float64Value(v.Float64())
	case slog.KindDuration:
		return log.StringValue(v.Duration().String())
	case slog.KindGroup:
		group := v.Group()
		kvs := make([]log.KeyValue, 0, len(group))
		for _, a := range group {
			kvs = append(kvs, log.KeyValue{Key: a.Key, Value: toOTelValue(a.Value.Resolve())})
		}
		return log.MapValue(kvs...)
	default:
		return log.StringValue(v.String())
	}
}
