package config

import "time"

// Default values for configuration fields.
const (
	// Input defaults
	DefaultInputSource       = "csv"
	DefaultInputTimezone     = "UTC"
	DefaultSQLiteBusyTimeout = 5 * time.Second

	// Output defaults
	DefaultOutputFormat = "text"

	// Engine defaults
	DefaultEngineWorkers = 1

	// Watch defaults
	DefaultWatchDebounceInterval = 500 * time.Millisecond

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "text"
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "revprune"
)

// ApplyDefaults fills unset fields with their default values. The policy
// section has no defaults: an empty policy removes every revision not
// protected by another rule, so nothing is assumed.
func ApplyDefaults(cfg *Config) {
	// Input defaults
	if cfg.Input.Source == "" {
		cfg.Input.Source = DefaultInputSource
	}
	if cfg.Input.Timezone == "" {
		cfg.Input.Timezone = DefaultInputTimezone
	}
	if cfg.Input.SQLite.BusyTimeout == 0 {
		cfg.Input.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Output defaults
	if cfg.Output.Format == "" {
		cfg.Output.Format = DefaultOutputFormat
	}

	// Engine defaults
	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = DefaultEngineWorkers
	}

	// Watch defaults
	if cfg.Watch.DebounceInterval == 0 {
		cfg.Watch.DebounceInterval = DefaultWatchDebounceInterval
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
