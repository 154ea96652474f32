package observability

import (
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// maxAttrValueLen bounds exported string attribute values, in bytes.
const maxAttrValueLen = 512

// redactingProcessor forwards spans to a delegate with every attribute
// outside the span key set removed and long string values cut. Source text
// therefore never reaches an exporter, whatever a step author records.
type redactingProcessor struct {
	sdktrace.SpanProcessor

	logger  *slog.Logger
	dropped sync.Map
}

// NewRedactingProcessor wraps delegate. When logger is non-nil each dropped
// key is reported once.
func NewRedactingProcessor(delegate sdktrace.SpanProcessor, logger *slog.Logger) sdktrace.SpanProcessor {
	return &redactingProcessor{SpanProcessor: delegate, logger: logger}
}

// OnEnd hands the delegate the redacted view of s.
func (p *redactingProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	p.SpanProcessor.OnEnd(&redactedSpan{ReadOnlySpan: s, attrs: p.redact(s.Attributes())})
}

func (p *redactingProcessor) redact(attrs []attribute.KeyValue) []attribute.KeyValue {
	kept := make([]attribute.KeyValue, 0, len(attrs))

	for _, kv := range attrs {
		key := string(kv.Key)

		if _, ok := spanKeys[key]; !ok {
			p.reportDropped(key)

			continue
		}

		if kv.Value.Type() == attribute.STRING && len(kv.Value.AsString()) > maxAttrValueLen {
			kv = kv.Key.String(kv.Value.AsString()[:maxAttrValueLen])
		}

		kept = append(kept, kv)
	}

	return kept
}

func (p *redactingProcessor) reportDropped(key string) {
	if p.logger == nil {
		return
	}

	if _, seen := p.dropped.LoadOrStore(key, struct{}{}); !seen {
		p.logger.Warn("span attribute dropped", "key", key)
	}
}

type redactedSpan struct {
	sdktrace.ReadOnlySpan

	attrs []attribute.KeyValue
}

func (s *redactedSpan) Attributes() []attribute.KeyValue {
	return s.attrs
}
