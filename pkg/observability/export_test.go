package observability

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ProbeBuildResource exposes buildResource for tests.
func ProbeBuildResource(cfg Config) (*resource.Resource, error) {
	return buildResource(cfg)
}

// ProbeSampled reports whether the sampler selected for cfg samples a root
// span with the given name.
func ProbeSampled(cfg Config, spanName string) bool {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(newSampler(cfg)))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("probe").Start(context.Background(), spanName)
	defer span.End()

	return span.SpanContext().IsSampled()
}
