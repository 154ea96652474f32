package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/codemod/pkg/observability"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/node"
	"github.com/Sumatoshi-tech/codemod/pkg/syntax/rewrite"
)

// StepResult describes one step of a run.
type StepResult struct {
	Name    string
	Changed bool
	Stats   rewrite.Stats
}

// Result is the outcome of running one migration over one tree.
type Result struct {
	Migration string
	Tree      node.Node
	Changed   bool
	Steps     []StepResult
	Duration  time.Duration
}

// Stats sums the stats of every step.
func (r Result) Stats() rewrite.Stats {
	var total rewrite.Stats

	for _, step := range r.Steps {
		total = total.Add(step.Stats)
	}

	return total
}

// Runner applies migrations with tracing, metrics and logging.
type Runner struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.MigrationMetrics
}

// NewRunner creates a runner. Nil arguments fall back to no-op implementations.
func NewRunner(logger *slog.Logger, tracer trace.Tracer, metrics *observability.MigrationMetrics) *Runner {
	if logger == nil {
		logger = observability.DiscardLogger()
	}

	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("codemod")
	}

	if metrics == nil {
		metrics = observability.NoopMigrationMetrics()
	}

	return &Runner{logger: logger, tracer: tracer, metrics: metrics}
}

// Run applies m to root. file names the input in logs, spans and errors.
func (r *Runner) Run(ctx context.Context, file string, root node.Node, m Migration) (Result, error) {
	ctx = observability.ContextWithFile(ctx, file)

	ctx, span := r.tracer.Start(ctx, observability.SpanMigrate,
		trace.WithAttributes(
			attribute.String(observability.AttrMigration, m.Name()),
			attribute.String(observability.AttrFile, file),
		))
	defer span.End()

	start := time.Now()
	result := Result{Migration: m.Name(), Tree: root}

	for _, step := range m.Steps() {
		stepResult, next, err := r.runStep(ctx, m, step, result.Tree)
		if err != nil {
			result.Duration = time.Since(start)
			r.metrics.RecordRun(ctx, m.Name(), false, err, result.Duration)
			span.RecordError(err)
			span.SetStatus(codes.Error, "migration failed")
			r.logger.ErrorContext(ctx, "migration failed", "migration", m.Name(), "step", step.Name(), "error", err)

			return Result{}, fmt.Errorf("%s: migration %s: %w", file, m.Name(), err)
		}

		result.Tree = next
		result.Steps = append(result.Steps, stepResult)
	}

	result.Duration = time.Since(start)
	result.Changed = result.Tree != root

	r.metrics.RecordRun(ctx, m.Name(), result.Changed, nil, result.Duration)
	span.SetAttributes(attribute.Bool(observability.AttrChanged, result.Changed))
	r.logger.InfoContext(ctx, "migration applied",
		"migration", m.Name(),
		"changed", result.Changed,
		"duration", result.Duration,
	)

	return result, nil
}

// RunAll applies the migrations in order, threading the tree through them.
func (r *Runner) RunAll(ctx context.Context, file string, root node.Node, migrations ...Migration) ([]Result, error) {
	results := make([]Result, 0, len(migrations))
	current := root

	for _, m := range migrations {
		result, err := r.Run(ctx, file, current, m)
		if err != nil {
			return results, err
		}

		current = result.Tree
		results = append(results, result)
	}

	return results, nil
}

func (r *Runner) runStep(ctx context.Context, m Migration, step Step, tree node.Node) (StepResult, node.Node, error) {
	ctx, span := r.tracer.Start(ctx, observability.SpanStep,
		trace.WithAttributes(
			attribute.String(observability.AttrMigration, m.Name()),
			attribute.String(observability.AttrStep, step.Name()),
		))
	defer span.End()

	next, stats, err := ApplyWithStats(tree, step)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(observability.AttrErrorType, errorType(err)))
		span.SetStatus(codes.Error, "step failed")

		return StepResult{}, nil, err
	}

	span.SetAttributes(
		attribute.Int(observability.AttrVisited, stats.Visited),
		attribute.Int(observability.AttrRebuilt, stats.Rebuilt),
		attribute.Int(observability.AttrReplaced, stats.Replaced),
	)

	r.metrics.RecordStep(ctx, m.Name(), step.Name(), stats.Visited, stats.Rebuilt)
	r.logger.DebugContext(ctx, "step applied",
		"migration", m.Name(),
		"step", step.Name(),
		"visited", stats.Visited,
		"rebuilt", stats.Rebuilt,
		"replaced", stats.Replaced,
	)

	return StepResult{Name: step.Name(), Changed: next != tree, Stats: stats}, next, nil
}

// errorType classifies a step failure for the error.type span attribute.
func errorType(err error) string {
	switch {
	case errors.Is(err, node.ErrUnexpectedNodeKind):
		return "unexpected_node_kind"
	case errors.Is(err, rewrite.ErrNilResult):
		return "nil_result"
	default:
		return "transform"
	}
}
