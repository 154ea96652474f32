package config

// Catalog defaults.
const (
	DefaultCatalogPath     = ""
	DefaultCatalogLanguage = ""
	DefaultCatalogStrict   = false
)

// Migrate defaults.
const (
	DefaultMigrateWorkers          = 4
	DefaultMigrateWrite            = false
	DefaultMigrateOutputDir        = ""
	DefaultMigrateCheckIdempotence = false
	DefaultMigrateMaxFileSize      = "64MB"
	DefaultMigrateTimeout          = "5m"
)

// Logging defaults.
const (
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = LogFormatText
)

// Telemetry defaults.
const (
	DefaultTelemetryEnvironment  = ""
	DefaultTelemetryOTLPEndpoint = ""
	DefaultTelemetryOTLPInsecure = false
	DefaultTelemetrySampleRatio  = 1.0
	DefaultTelemetryTraceVerbose = false
	DefaultMetricsTextfile       = ""
)
