// Package config provides configuration loading and validation for codemod.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/codemod/pkg/observability"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers     = errors.New("migrate workers must be positive")
	ErrInvalidFileSize    = errors.New("invalid max file size")
	ErrInvalidTimeout     = errors.New("migrate timeout must be positive")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("invalid log format")
	ErrInvalidSampleRatio = errors.New("sample ratio must be between 0 and 1")
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// EnvPrefix prefixes every environment override, e.g. CODEMOD_MIGRATE_WORKERS.
const EnvPrefix = "CODEMOD"

// Config holds all configuration for codemod.
type Config struct {
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Migrate   MigrateConfig   `mapstructure:"migrate"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// CatalogConfig selects the node-kind catalog.
type CatalogConfig struct {
	// Path is a catalog YAML file to register next to the built-in catalog.
	Path string `mapstructure:"path"`
	// Language forces a catalog instead of detecting it per file.
	Language string `mapstructure:"language"`
	// Strict validates every input against the catalog's JSON schema before
	// building it.
	Strict bool `mapstructure:"strict"`
}

// MigrateConfig holds migration run settings.
type MigrateConfig struct {
	// Migrations to run, in order. Empty runs every registered migration.
	Migrations       []string      `mapstructure:"migrations"`
	OutputDir        string        `mapstructure:"output_dir"`
	MaxFileSize      string        `mapstructure:"max_file_size"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Workers          int           `mapstructure:"workers"`
	Write            bool          `mapstructure:"write"`
	CheckIdempotence bool          `mapstructure:"check_idempotence"`

	maxFileSizeBytes uint64
}

// MaxFileSizeBytes is MaxFileSize parsed by LoadConfig.
func (m MigrateConfig) MaxFileSizeBytes() uint64 {
	return m.maxFileSizeBytes
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SlogLevel parses Level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(l.Level))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}

	return level, nil
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Environment     string  `mapstructure:"environment"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders     string  `mapstructure:"otlp_headers"`
	MetricsTextfile string  `mapstructure:"metrics_textfile"`
	SampleRatio     float64 `mapstructure:"sample_ratio"`
	OTLPInsecure    bool    `mapstructure:"otlp_insecure"`
	TraceVerbose    bool    `mapstructure:"trace_verbose"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("codemod")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/codemod")
	}

	viperCfg.SetEnvPrefix(EnvPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("catalog.path", DefaultCatalogPath)
	viperCfg.SetDefault("catalog.language", DefaultCatalogLanguage)
	viperCfg.SetDefault("catalog.strict", DefaultCatalogStrict)

	viperCfg.SetDefault("migrate.migrations", []string{})
	viperCfg.SetDefault("migrate.workers", DefaultMigrateWorkers)
	viperCfg.SetDefault("migrate.write", DefaultMigrateWrite)
	viperCfg.SetDefault("migrate.output_dir", DefaultMigrateOutputDir)
	viperCfg.SetDefault("migrate.check_idempotence", DefaultMigrateCheckIdempotence)
	viperCfg.SetDefault("migrate.max_file_size", DefaultMigrateMaxFileSize)
	viperCfg.SetDefault("migrate.timeout", DefaultMigrateTimeout)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.format", DefaultLoggingFormat)

	viperCfg.SetDefault("telemetry.environment", DefaultTelemetryEnvironment)
	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultTelemetryOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultTelemetryOTLPInsecure)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultTelemetrySampleRatio)
	viperCfg.SetDefault("telemetry.trace_verbose", DefaultTelemetryTraceVerbose)
	viperCfg.SetDefault("telemetry.metrics_textfile", DefaultMetricsTextfile)
}

func validateConfig(config *Config) error {
	if config.Migrate.Workers <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, config.Migrate.Workers)
	}

	size, err := humanize.ParseBytes(config.Migrate.MaxFileSize)
	if err != nil || size == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidFileSize, config.Migrate.MaxFileSize)
	}

	config.Migrate.maxFileSizeBytes = size

	if config.Migrate.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, config.Migrate.Timeout)
	}

	_, err = config.Logging.SlogLevel()
	if err != nil {
		return err
	}

	if config.Logging.Format != LogFormatText && config.Logging.Format != LogFormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	if config.Telemetry.SampleRatio < 0 || config.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, config.Telemetry.SampleRatio)
	}

	return nil
}

// Observability maps the logging and telemetry sections onto an
// observability.Config. The config must have passed LoadConfig validation.
func (c *Config) Observability(version string, mode observability.AppMode) observability.Config {
	obs := observability.DefaultConfig()

	obs.ServiceVersion = version
	obs.Mode = mode
	obs.Environment = c.Telemetry.Environment
	obs.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	obs.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	obs.OTLPInsecure = c.Telemetry.OTLPInsecure
	obs.SampleRatio = c.Telemetry.SampleRatio
	obs.TraceVerbose = c.Telemetry.TraceVerbose
	obs.MetricsTextfile = c.Telemetry.MetricsTextfile
	obs.LogJSON = c.Logging.Format == LogFormatJSON

	if level, err := c.Logging.SlogLevel(); err == nil {
		obs.LogLevel = level
	}

	return obs
}
