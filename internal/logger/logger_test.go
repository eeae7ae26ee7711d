package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/trace"
)

type recordingLogger struct {
	noop.Logger
	records []log.Record
}

func (l *recordingLogger) Emit(_ context.Context, r log.Record) {
	l.records = append(l.records, r)
}

func attrsOf(r log.Record) map[string]log.Value {
	out := map[string]log.Value{}
	r.WalkAttributes(func(kv log.KeyValue) bool {
		out[kv.Key] = kv.Value
		return true
	})
	return out
}

func TestNew(t *testing.T) {
	assert.NotNil(t, New("production", ""))
	assert.NotNil(t, New("development", "warn"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("", "development"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("", "production"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING", "development"))
	assert.Equal(t, slog.LevelError, ParseLevel("error", "production"))
}

func TestNewWithWriter_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "production", "", nil)
	l.Info("recipe structured", "model", "llama3:8b")

	assert.Contains(t, buf.String(), `"msg":"recipe structured"`)
	assert.Contains(t, buf.String(), `"model":"llama3:8b"`)
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "development", "warn", nil)
	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestOTelBridge_EmitsWithBoundAttrs(t *testing.T) {
	var buf bytes.Buffer
	rec := &recordingLogger{}
	l := NewWithWriter(&buf, "development", "debug", rec).
		With("component", "pipeline").
		WithGroup("ollama")

	l.Error("completion failed", "model", "mistral", "attempt", 1)

	require.Len(t, rec.records, 1)
	r := rec.records[0]
	assert.Equal(t, "completion failed", r.Body().AsString())
	assert.Equal(t, log.SeverityError, r.Severity())

	attrs := attrsOf(r)
	assert.Equal(t, "pipeline", attrs["component"].AsString())
	assert.Equal(t, "mistral", attrs["ollama.model"].AsString())
	assert.Equal(t, int64(1), attrs["ollama.attempt"].AsInt64())
}

func TestOTelBridge_SkipsFilteredRecords(t *testing.T) {
	var buf bytes.Buffer
	rec := &recordingLogger{}
	l := NewWithWriter(&buf, "production", "", rec)
	l.Debug("too chatty")
	assert.Empty(t, rec.records)
}

type mockSpan struct {
	trace.Span
	sc trace.SpanContext
}

func (s mockSpan) SpanContext() trace.SpanContext {
	return s.sc
}

func TestWithTraceContext(t *testing.T) {
	t.Run("valid span", func(t *testing.T) {
		traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
		spanID, _ := trace.SpanIDFromHex("0102030405060708")
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID: traceID,
			SpanID:  spanID,
		})
		ctx := trace.ContextWithSpan(context.Background(), mockSpan{sc: sc})

		attr := WithTraceContext(ctx)
		assert.Equal(t, "trace", attr.Key)

		group := attr.Value.Group()
		require.Len(t, group, 2)
		assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", group[0].Value.String())
		assert.Equal(t, "0102030405060708", group[1].Value.String())
	})

	t.Run("invalid span", func(t *testing.T) {
		attr := WithTraceContext(context.Background())
		assert.True(t, attr.Equal(slog.Attr{}))
	})
}
