package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

const (
	metricRunsTotal     = "codemod.migrate.runs.total"
	metricRunDuration   = "codemod.migrate.duration.seconds"
	metricNodesVisited  = "codemod.rewrite.nodes.visited"
	metricNodesRebuilt  = "codemod.rewrite.nodes.rebuilt"
	metricErrorsTotal   = "codemod.migrate.errors.total"
	attrMigration       = "migration"
	attrStep            = "step"
	attrStatus          = "status"
	statusChanged       = "changed"
	statusUnchanged     = "unchanged"
	statusError         = "error"
	meterNameMigrations = "codemod.migrate"
)

// durationBucketBoundaries covers 100µs to 30s: a single file migrates in
// well under a second, large generated files take longer.
var durationBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30}

// MigrationMetrics holds the OTel instruments recorded per migration run.
type MigrationMetrics struct {
	runsTotal    metric.Int64Counter
	runDuration  metric.Float64Histogram
	nodesVisited metric.Int64Counter
	nodesRebuilt metric.Int64Counter
	errorsTotal  metric.Int64Counter
}

// NewMigrationMetrics creates migration instruments from the given meter.
func NewMigrationMetrics(mt metric.Meter) (*MigrationMetrics, error) {
	runsTotal, err := mt.Int64Counter(metricRunsTotal,
		metric.WithDescription("Migration runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunsTotal, err)
	}

	runDuration, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Time to apply one migration to one tree"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	nodesVisited, err := mt.Int64Counter(metricNodesVisited,
		metric.WithDescription("Nodes passed to step transforms"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricNodesVisited, err)
	}

	nodesRebuilt, err := mt.Int64Counter(metricNodesRebuilt,
		metric.WithDescription("Nodes reallocated because a descendant changed"),
		metric.WithUnit("{node}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricNodesRebuilt, err)
	}

	errorsTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Failed migration runs"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	return &MigrationMetrics{
		runsTotal:    runsTotal,
		runDuration:  runDuration,
		nodesVisited: nodesVisited,
		nodesRebuilt: nodesRebuilt,
		errorsTotal:  errorsTotal,
	}, nil
}

// NoopMigrationMetrics returns instruments that record nothing.
func NoopMigrationMetrics() *MigrationMetrics {
	metrics, err := NewMigrationMetrics(noopmetric.NewMeterProvider().Meter(meterNameMigrations))
	if err != nil {
		panic(fmt.Sprintf("noop meter: %v", err))
	}

	return metrics
}

// RecordRun records a completed migration run.
func (mm *MigrationMetrics) RecordRun(ctx context.Context, migration string, changed bool, err error, duration time.Duration) {
	status := statusUnchanged

	switch {
	case err != nil:
		status = statusError
	case changed:
		status = statusChanged
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMigration, migration),
		attribute.String(attrStatus, status),
	)

	mm.runsTotal.Add(ctx, 1, attrs)
	mm.runDuration.Record(ctx, duration.Seconds(), attrs)

	if err != nil {
		mm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrMigration, migration)))
	}
}

// RecordStep records the rewrite work of one step.
func (mm *MigrationMetrics) RecordStep(ctx context.Context, migration, step string, visited, rebuilt int) {
	attrs := metric.WithAttributes(
		attribute.String(attrMigration, migration),
		attribute.String(attrStep, step),
	)

	mm.nodesVisited.Add(ctx, int64(visited), attrs)
	mm.nodesRebuilt.Add(ctx, int64(rebuilt), attrs)
}
