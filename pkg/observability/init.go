package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "codemod"

// Providers holds the initialized observability providers.
type Providers struct {
	Tracer  trace.Tracer
	Meter   metric.Meter
	Metrics *MigrationMetrics
	Logger  *slog.Logger

	// Shutdown flushes pending telemetry and writes the metrics textfile when
	// configured. Call it once before exit; later calls are no-ops.
	Shutdown func(ctx context.Context) error
}

// closers runs shutdown hooks in reverse registration order.
type closers []func(ctx context.Context) error

func (c closers) close(ctx context.Context) error {
	var errs []error

	for _, hook := range slices.Backward(c) {
		errs = append(errs, hook(ctx))
	}

	return errors.Join(errs...)
}

// Init sets up tracing, metrics and structured logging for cfg and installs
// the tracer and meter providers as otel globals. Without an OTLP endpoint
// tracing is a no-op; without an endpoint or metrics textfile so are metrics.
func Init(cfg Config) (Providers, error) {
	ctx := context.Background()
	logger := buildLogger(cfg)

	res, err := buildResource(cfg)
	if err != nil {
		return Providers{}, err
	}

	var hooks closers

	tp, err := buildTracerProvider(ctx, cfg, res, logger, &hooks)
	if err != nil {
		return Providers{}, errors.Join(fmt.Errorf("build tracer provider: %w", err), hooks.close(ctx))
	}

	mp, err := buildMeterProvider(ctx, cfg, res, &hooks)
	if err != nil {
		return Providers{}, errors.Join(fmt.Errorf("build meter provider: %w", err), hooks.close(ctx))
	}

	meter := mp.Meter(instrumentationName)

	metrics, err := NewMigrationMetrics(meter)
	if err != nil {
		return Providers{}, errors.Join(err, hooks.close(ctx))
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	timeout := time.Duration(cfg.ShutdownTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultShutdownTimeoutSec * time.Second
	}

	var (
		once        sync.Once
		shutdownErr error
	)

	return Providers{
		Tracer:  tp.Tracer(instrumentationName),
		Meter:   meter,
		Metrics: metrics,
		Logger:  logger,
		Shutdown: func(shutdownCtx context.Context) error {
			once.Do(func() {
				deadlineCtx, cancel := context.WithTimeout(shutdownCtx, timeout)
				defer cancel()

				shutdownErr = hooks.close(deadlineCtx)
			})

			return shutdownErr
		},
	}, nil
}

func buildResource(cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}

	if cfg.Mode != "" {
		attrs = append(attrs, attribute.String("app.mode", string(cfg.Mode)))
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	return res, nil
}

func buildTracerProvider(
	ctx context.Context, cfg Config, res *resource.Resource, logger *slog.Logger, hooks *closers,
) (trace.TracerProvider, error) {
	if cfg.OTLPEndpoint == "" {
		return nooptrace.NewTracerProvider(), nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}

	if cfg.OTLPInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.OTLPHeaders))
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	var redactLogger *slog.Logger
	if cfg.DebugTrace {
		redactLogger = logger
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewRedactingProcessor(sdktrace.NewBatchSpanProcessor(exporter), redactLogger)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg)),
	)

	*hooks = append(*hooks, tp.Shutdown)

	return tp, nil
}

func buildMeterProvider(
	ctx context.Context, cfg Config, res *resource.Resource, hooks *closers,
) (metric.MeterProvider, error) {
	if cfg.OTLPEndpoint == "" && cfg.MetricsTextfile == "" {
		return noopmetric.NewMeterProvider(), nil
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if cfg.OTLPEndpoint != "" {
		exporter, err := buildOTLPMetricExporter(ctx, cfg)
		if err != nil {
			return nil, err
		}

		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	}

	var textfile *TextfileExporter

	if cfg.MetricsTextfile != "" {
		var err error

		textfile, err = NewTextfileExporter()
		if err != nil {
			return nil, err
		}

		opts = append(opts, sdkmetric.WithReader(textfile.Reader()))
	}

	mp := sdkmetric.NewMeterProvider(opts...)

	// The textfile is written before the provider shuts its readers down.
	*hooks = append(*hooks, mp.Shutdown)

	if textfile != nil {
		*hooks = append(*hooks, func(context.Context) error {
			return textfile.WriteFile(cfg.MetricsTextfile)
		})
	}

	return mp, nil
}

func buildOTLPMetricExporter(ctx context.Context, cfg Config) (sdkmetric.Exporter, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}

	if cfg.OTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.OTLPHeaders))
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	return exporter, nil
}

func buildLogger(cfg Config) *slog.Logger {
	var writer io.Writer = os.Stderr
	if cfg.LogWriter != nil {
		writer = cfg.LogWriter
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler = slog.NewTextHandler(writer, opts)
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(writer, opts)
	}

	return slog.New(NewTracingHandler(inner, cfg.ServiceName, cfg.Environment, cfg.Mode))
}

// ParseOTLPHeaders parses "key=value,key=value" into a header map. Pairs
// without "=" are skipped; nil is returned when nothing remains.
func ParseOTLPHeaders(raw string) map[string]string {
	var headers map[string]string

	for pair := range strings.SplitSeq(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		if headers == nil {
			headers = make(map[string]string)
		}

		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return headers
}
