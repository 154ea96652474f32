package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/codemod/pkg/observability"
)

// logOnce logs one record through a JSON TracingHandler and decodes it.
func logOnce(t *testing.T, env string, mode observability.AppMode, emit func(*slog.Logger)) map[string]any {
	t.Helper()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	emit(slog.New(observability.NewTracingHandler(inner, "codemod", env, mode)))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	return record
}

func spanContext(t *testing.T) context.Context {
	t.Helper()

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	return trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
}

func TestTracingHandler_SpanAndServiceAttrs(t *testing.T) {
	t.Parallel()

	ctx := observability.ContextWithFile(spanContext(t), "src/a.hack")

	record := logOnce(t, "ci", observability.ModeCLI, func(logger *slog.Logger) {
		logger.InfoContext(ctx, "migration applied")
	})

	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", record[observability.LogKeyTraceID])
	assert.Equal(t, "0102030405060708", record[observability.LogKeySpanID])
	assert.Equal(t, "src/a.hack", record[observability.LogKeyFile])
	assert.Equal(t, "codemod", record["service"])
	assert.Equal(t, "ci", record["env"])
	assert.Equal(t, "cli", record["mode"])
}

func TestTracingHandler_PlainContext(t *testing.T) {
	t.Parallel()

	record := logOnce(t, "", observability.ModeCheck, func(logger *slog.Logger) {
		logger.Info("no span")
	})

	assert.NotContains(t, record, observability.LogKeyTraceID)
	assert.NotContains(t, record, observability.LogKeyFile)
	assert.NotContains(t, record, "env")
	assert.Equal(t, "check", record["mode"])
}

func TestTracingHandler_GroupsKeepServiceTopLevel(t *testing.T) {
	t.Parallel()

	record := logOnce(t, "", observability.ModeCLI, func(logger *slog.Logger) {
		logger.With("migration", "label-colons").
			WithGroup("step").
			Info("step applied", "name", "default-label-colon")
	})

	assert.Equal(t, "codemod", record["service"])
	assert.Equal(t, "label-colons", record["migration"])

	step, ok := record["step"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "default-label-colon", step["name"])
}

func TestFileFromContext(t *testing.T) {
	t.Parallel()

	file, ok := observability.FileFromContext(observability.ContextWithFile(context.Background(), "b.hack"))
	assert.True(t, ok)
	assert.Equal(t, "b.hack", file)

	_, ok = observability.FileFromContext(context.Background())
	assert.False(t, ok)

	_, ok = observability.FileFromContext(observability.ContextWithFile(context.Background(), ""))
	assert.False(t, ok)
}

func TestDiscardLogger(t *testing.T) {
	t.Parallel()

	logger := observability.DiscardLogger()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}
