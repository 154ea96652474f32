package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// TextfileExporter collects OTel metrics into a private Prometheus registry
// and writes them as a text exposition file, for batch runs that exit before
// any scraper could reach them.
type TextfileExporter struct {
	registry *prometheus.Registry
	reader   sdkmetric.Reader
}

// NewTextfileExporter creates an exporter with its own registry. Each call is
// independent so repeated runs in one process do not collide.
func NewTextfileExporter() (*TextfileExporter, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
		promexporter.WithoutScopeInfo(),
	)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return &TextfileExporter{registry: registry, reader: exporter}, nil
}

// Reader is the metric reader to attach to a MeterProvider.
func (te *TextfileExporter) Reader() sdkmetric.Reader {
	return te.reader
}

// Gatherer exposes the registry.
func (te *TextfileExporter) Gatherer() prometheus.Gatherer {
	return te.registry
}

// WriteFile writes the current metrics to path atomically.
func (te *TextfileExporter) WriteFile(path string) error {
	err := prometheus.WriteToTextfile(path, te.registry)
	if err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}

	return nil
}
