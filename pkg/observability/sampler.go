package observability

import (
	"os"
	"strconv"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Standard OTel environment variables for sampler selection.
const (
	envTracesSampler    = "OTEL_TRACES_SAMPLER"
	envTracesSamplerArg = "OTEL_TRACES_SAMPLER_ARG"
)

// envSamplers maps OTEL_TRACES_SAMPLER values to samplers; the argument is
// OTEL_TRACES_SAMPLER_ARG parsed as a ratio.
//
//nolint:gochecknoglobals // read-only lookup table.
var envSamplers = map[string]func(ratio float64) sdktrace.Sampler{
	"always_on":                func(float64) sdktrace.Sampler { return sdktrace.AlwaysSample() },
	"always_off":               func(float64) sdktrace.Sampler { return sdktrace.NeverSample() },
	"traceidratio":             sdktrace.TraceIDRatioBased,
	"parentbased_always_on":    func(float64) sdktrace.Sampler { return sdktrace.ParentBased(sdktrace.AlwaysSample()) },
	"parentbased_always_off":   func(float64) sdktrace.Sampler { return sdktrace.ParentBased(sdktrace.NeverSample()) },
	"parentbased_traceidratio": func(r float64) sdktrace.Sampler { return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(r)) },
}

// newSampler picks the base sampler (DebugTrace, then the OTel environment,
// then SampleRatio) and wraps it so step spans are only kept with TraceVerbose.
func newSampler(cfg Config) sdktrace.Sampler {
	base := sdktrace.ParentBased(sdktrace.AlwaysSample())

	switch {
	case cfg.DebugTrace:
		base = sdktrace.AlwaysSample()
	case os.Getenv(envTracesSampler) != "":
		if build, ok := envSamplers[os.Getenv(envTracesSampler)]; ok {
			base = build(parseRatio(os.Getenv(envTracesSamplerArg)))
		}
	case cfg.SampleRatio > 0:
		base = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	}

	if cfg.TraceVerbose || cfg.DebugTrace {
		return base
	}

	return NewStepSampler(base)
}

// stepSampler drops SpanStep spans and defers every other decision.
type stepSampler struct {
	base sdktrace.Sampler
}

// NewStepSampler wraps base so that per-step spans are never recorded while
// per-file migration spans follow base.
func NewStepSampler(base sdktrace.Sampler) sdktrace.Sampler {
	return stepSampler{base: base}
}

func (s stepSampler) ShouldSample(params sdktrace.SamplingParameters) sdktrace.SamplingResult {
	if params.Name == SpanStep {
		return sdktrace.SamplingResult{Decision: sdktrace.Drop}
	}

	return s.base.ShouldSample(params)
}

func (s stepSampler) Description() string {
	return "StepSampler{" + s.base.Description() + "}"
}

func parseRatio(s string) float64 {
	ratio, err := strconv.ParseFloat(s, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 1.0
	}

	return ratio
}
