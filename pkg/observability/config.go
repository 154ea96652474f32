// Package observability provides OpenTelemetry tracing, migration metrics
// and structured logging for codemod.
package observability

import (
	"io"
	"log/slog"
)

// AppMode identifies how the binary was launched.
type AppMode string

const (
	// ModeCLI parses or migrates documents.
	ModeCLI AppMode = "cli"
	// ModeCheck validates documents or runs the idempotence harness.
	ModeCheck AppMode = "check"
)

const (
	defaultServiceName        = "codemod"
	defaultShutdownTimeoutSec = 5
)

// Config holds all observability configuration.
type Config struct {
	// Resource attributes.
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	// OTLP gRPC export. An empty endpoint disables export.
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	OTLPInsecure bool

	// DebugTrace samples every span, step spans included, and logs span
	// attributes the redacting processor drops.
	DebugTrace bool
	// SampleRatio is the root sampling ratio in [0, 1]; 0 samples everything.
	SampleRatio float64
	// TraceVerbose keeps one span per migration step.
	TraceVerbose bool

	// MetricsTextfile receives a Prometheus text exposition on shutdown.
	MetricsTextfile string

	LogLevel  slog.Level
	LogJSON   bool
	LogWriter io.Writer // nil means standard error

	ShutdownTimeoutSec int
}

// DefaultConfig returns a Config for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
