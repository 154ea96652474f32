package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Log attribute keys added by TracingHandler.
const (
	LogKeyTraceID = "trace_id"
	LogKeySpanID  = "span_id"
	LogKeyFile    = "file"
)

type fileContextKey struct{}

// ContextWithFile records the input file being processed; TracingHandler
// logs it with every record emitted under the returned context.
func ContextWithFile(ctx context.Context, file string) context.Context {
	return context.WithValue(ctx, fileContextKey{}, file)
}

// FileFromContext returns the file stored by ContextWithFile.
func FileFromContext(ctx context.Context) (string, bool) {
	file, _ := ctx.Value(fileContextKey{}).(string)

	return file, file != ""
}

// TracingHandler decorates records with the current input file and span.
// Service, mode and environment are bound once at construction so they stay
// top-level under WithGroup.
type TracingHandler struct {
	next slog.Handler
}

// NewTracingHandler wraps next.
func NewTracingHandler(next slog.Handler, service, env string, mode AppMode) *TracingHandler {
	bound := []slog.Attr{slog.String("service", service), slog.String("mode", string(mode))}
	if env != "" {
		bound = append(bound, slog.String("env", env))
	}

	return &TracingHandler{next: next.WithAttrs(bound)}
}

func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(contextAttrs(ctx)...)

	err := h.next.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("tracing handler: %w", err)
	}

	return nil
}

func (h *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{next: h.next.WithAttrs(attrs)}
}

func (h *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{next: h.next.WithGroup(name)}
}

func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if file, ok := FileFromContext(ctx); ok {
		attrs = append(attrs, slog.String(LogKeyFile, file))
	}

	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		attrs = append(attrs,
			slog.String(LogKeyTraceID, span.TraceID().String()),
			slog.String(LogKeySpanID, span.SpanID().String()),
		)
	}

	return attrs
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
