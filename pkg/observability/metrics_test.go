package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/codemod/pkg/observability"
)

func setupTestMeter(t *testing.T) (*observability.MigrationMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := observability.NewMigrationMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return metrics, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumByStatus(t *testing.T, m *metricdata.Metrics) map[string]int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	out := make(map[string]int64)

	for _, dp := range sum.DataPoints {
		status, _ := dp.Attributes.Value(attribute.Key("status"))
		out[status.AsString()] += dp.Value
	}

	return out
}

func TestMigrationMetrics_RecordRun(t *testing.T) {
	t.Parallel()

	metrics, reader := setupTestMeter(t)
	ctx := context.Background()

	metrics.RecordRun(ctx, "label-colons", true, nil, 5*time.Millisecond)
	metrics.RecordRun(ctx, "label-colons", false, nil, time.Millisecond)
	metrics.RecordRun(ctx, "label-colons", false, nil, time.Millisecond)

	rm := collectMetrics(t, reader)

	runs := findMetric(rm, "codemod.migrate.runs.total")
	require.NotNil(t, runs)
	assert.Equal(t, map[string]int64{"changed": 1, "unchanged": 2}, sumByStatus(t, runs))

	duration := findMetric(rm, "codemod.migrate.duration.seconds")
	require.NotNil(t, duration)

	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)

	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}

	assert.Equal(t, uint64(3), count)
	assert.Nil(t, findMetric(rm, "codemod.migrate.errors.total"))
}

func TestMigrationMetrics_RecordRunError(t *testing.T) {
	t.Parallel()

	metrics, reader := setupTestMeter(t)

	metrics.RecordRun(context.Background(), "optional-shape-fields", true, errors.New("boom"), time.Millisecond)

	rm := collectMetrics(t, reader)

	runs := findMetric(rm, "codemod.migrate.runs.total")
	require.NotNil(t, runs)
	assert.Equal(t, map[string]int64{"error": 1}, sumByStatus(t, runs))

	errs := findMetric(rm, "codemod.migrate.errors.total")
	require.NotNil(t, errs)

	sum, ok := errs.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
}

func TestMigrationMetrics_RecordStep(t *testing.T) {
	t.Parallel()

	metrics, reader := setupTestMeter(t)
	ctx := context.Background()

	metrics.RecordStep(ctx, "label-colons", "case-label-colon", 100, 4)
	metrics.RecordStep(ctx, "label-colons", "case-label-colon", 50, 0)

	rm := collectMetrics(t, reader)

	visited := findMetric(rm, "codemod.rewrite.nodes.visited")
	require.NotNil(t, visited)

	sum, ok := visited.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(150), sum.DataPoints[0].Value)

	step, ok := sum.DataPoints[0].Attributes.Value(attribute.Key("step"))
	require.True(t, ok)
	assert.Equal(t, "case-label-colon", step.AsString())

	rebuilt := findMetric(rm, "codemod.rewrite.nodes.rebuilt")
	require.NotNil(t, rebuilt)
}

func TestNoopMigrationMetrics(t *testing.T) {
	t.Parallel()

	metrics := observability.NoopMigrationMetrics()

	assert.NotPanics(t, func() {
		metrics.RecordRun(context.Background(), "m", false, nil, time.Second)
		metrics.RecordStep(context.Background(), "m", "s", 1, 1)
	})
}
