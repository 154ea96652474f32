package migrate_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/codemod/pkg/migrate"
	"github.com/Sumatoshi-tech/codemod/pkg/observability"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/node"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/rewrite"
)

type runnerHarness struct {
	runner   *migrate.Runner
	spans    *tracetest.InMemoryExporter
	reader   *sdkmetric.ManualReader
	logLines *bytes.Buffer
}

func newRunnerHarness(t *testing.T) runnerHarness {
	t.Helper()

	spans := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(spans)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := observability.NewMigrationMetrics(mp.Meter("test"))
	require.NoError(t, err)

	var logLines bytes.Buffer

	handler := observability.NewTracingHandler(
		slog.NewJSONHandler(&logLines, &slog.HandlerOptions{Level: slog.LevelDebug}),
		"codemod", "test", observability.ModeCLI,
	)

	return runnerHarness{
		runner:   migrate.NewRunner(slog.New(handler), tp.Tracer("codemod"), metrics),
		spans:    spans,
		reader:   reader,
		logLines: &logLines,
	}
}

func (h runnerHarness) logRecords(t *testing.T) []map[string]any {
	t.Helper()

	var records []map[string]any

	for line := range strings.SplitSeq(strings.TrimSpace(h.logLines.String()), "\n") {
		var record map[string]any

		require.NoError(t, json.Unmarshal([]byte(line), &record))
		records = append(records, record)
	}

	return records
}

func (h runnerHarness) metric(t *testing.T, name string) *metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, h.reader.Collect(context.Background(), &rm))

	for _, scope := range rm.ScopeMetrics {
		for idx := range scope.Metrics {
			if scope.Metrics[idx].Name == name {
				return &scope.Metrics[idx]
			}
		}
	}

	return nil
}

func spanAttr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}

	return attribute.Value{}, false
}

func TestRunnerRun(t *testing.T) {
	t.Parallel()

	h := newRunnerHarness(t)
	tree := loadFixture(t, migrate.LabelColons, "switch")

	result, err := h.runner.Run(context.Background(), "switch.json", tree, lookup(t, migrate.LabelColons))
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, migrate.LabelColons, result.Migration)
	assert.Equal(t, readExpected(t, migrate.LabelColons, "switch"), node.FullText(result.Tree))
	require.Len(t, result.Steps, 2)
	assert.Equal(t, "default-label-colon", result.Steps[0].Name)
	assert.True(t, result.Steps[0].Changed)
	assert.True(t, result.Steps[1].Changed)
	assert.Equal(t, 2, result.Stats().Replaced)

	spans := h.spans.GetSpans()
	require.Len(t, spans, 3)

	// Step spans end before the migration span.
	assert.Equal(t, observability.SpanStep, spans[0].Name)
	assert.Equal(t, observability.SpanStep, spans[1].Name)
	assert.Equal(t, observability.SpanMigrate, spans[2].Name)
	assert.Equal(t, spans[2].SpanContext.SpanID(), spans[0].Parent.SpanID())

	step, ok := spanAttr(spans[1].Attributes, "step.name")
	require.True(t, ok)
	assert.Equal(t, "case-label-colon", step.AsString())

	changed, ok := spanAttr(spans[2].Attributes, "migration.changed")
	require.True(t, ok)
	assert.True(t, changed.AsBool())

	file, ok := spanAttr(spans[2].Attributes, "file.path")
	require.True(t, ok)
	assert.Equal(t, "switch.json", file.AsString())

	runs := h.metric(t, "codemod.migrate.runs.total")
	require.NotNil(t, runs)

	sum, ok := runs.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)

	records := h.logRecords(t)
	require.Len(t, records, 3)
	assert.Equal(t, "step applied", records[0]["msg"])
	assert.Equal(t, "migration applied", records[2]["msg"])
	assert.Equal(t, "switch.json", records[2]["file"])
	assert.NotEmpty(t, records[2]["trace_id"])
}

func TestRunnerRunUnchanged(t *testing.T) {
	t.Parallel()

	h := newRunnerHarness(t)
	tree := loadFixture(t, migrate.LabelColons, "colons")

	result, err := h.runner.Run(context.Background(), "colons.json", tree, lookup(t, migrate.LabelColons))
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Same(t, tree, result.Tree)

	for _, step := range result.Steps {
		assert.False(t, step.Changed)
		assert.False(t, step.Stats.Changed())
	}
}

func TestRunnerRunError(t *testing.T) {
	t.Parallel()

	h := newRunnerHarness(t)
	tree := loadFixture(t, migrate.LabelColons, "switch")
	errBoom := errors.New("boom")

	m := migrate.MustNew("broken", "always fails",
		migrate.NewStep("explode", func(_ node.Node, _ rewrite.Ancestors) (node.Node, error) {
			return nil, errBoom
		}),
	)

	result, err := h.runner.Run(context.Background(), "switch.json", tree, m)
	require.ErrorIs(t, err, errBoom)
	assert.Nil(t, result.Tree)
	assert.True(t, strings.HasPrefix(err.Error(), "switch.json: migration broken: step explode: "))

	spans := h.spans.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)

	errType, ok := spanAttr(spans[0].Attributes, observability.AttrErrorType)
	require.True(t, ok)
	assert.Equal(t, "transform", errType.AsString())

	errs := h.metric(t, "codemod.migrate.errors.total")
	require.NotNil(t, errs)

	records := h.logRecords(t)
	require.Len(t, records, 1)
	assert.Equal(t, "ERROR", records[0]["level"])
	assert.Equal(t, "explode", records[0]["step"])
}

func TestRunnerRunAll(t *testing.T) {
	t.Parallel()

	runner := migrate.NewRunner(nil, nil, nil)
	tree := loadFixture(t, migrate.OptionalShapeFields, "switch")

	migrations, err := migrate.Default().Select(nil)
	require.NoError(t, err)

	results, err := runner.RunAll(context.Background(), "switch.json", tree, migrations...)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, migrate.LabelColons, results[0].Migration)
	assert.True(t, results[0].Changed)
	assert.Same(t, results[0].Tree, results[1].Tree)
	assert.False(t, results[1].Changed)
}
