package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "REVPRUNE_"

// DefaultEnvFile is loaded by LoadConfigWithEnvOverrides when present.
const DefaultEnvFile = ".env"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// REVPRUNE_SECTION_FIELD (e.g., REVPRUNE_POLICY_KEEP_DAILY) and always take
// precedence over the file.
//
// The loading sequence is:
// 1. Load variables from .env (existing variables win)
// 2. Load YAML from file and apply defaults
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	if err := LoadEnvFiles(DefaultEnvFile); err != nil {
		return nil, err
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadEnvFiles loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %q: %w", p, err)
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric or boolean values are reported rather than ignored.
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	str := func(name string, dst *string) {
		if val, ok := os.LookupEnv(EnvPrefix + name); ok && val != "" {
			*dst = val
		}
	}
	count := func(name string, dst **int) {
		if val, ok := os.LookupEnv(EnvPrefix + name); ok && val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = &i
		}
	}
	integer := func(name string, dst *int) {
		var p *int
		count(name, &p)
		if p != nil {
			*dst = *p
		}
	}
	boolean := func(name string, dst *bool) {
		if val, ok := os.LookupEnv(EnvPrefix + name); ok && val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	duration := func(name string, dst *time.Duration) {
		if val, ok := os.LookupEnv(EnvPrefix + name); ok && val != "" {
			d, err := time.ParseDuration(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	// Policy overrides
	count("POLICY_KEEP_LAST", &cfg.Policy.KeepLast)
	count("POLICY_KEEP_LESS_THAN_N_REV", &cfg.Policy.KeepLessThanNRev)
	str("POLICY_KEEP_BEFORE", &cfg.Policy.KeepBefore)
	str("POLICY_KEEP_AFTER", &cfg.Policy.KeepAfter)
	count("POLICY_KEEP_HOURLY", &cfg.Policy.KeepHourly)
	count("POLICY_KEEP_DAILY", &cfg.Policy.KeepDaily)
	count("POLICY_KEEP_WEEKLY", &cfg.Policy.KeepWeekly)
	count("POLICY_KEEP_MONTHLY", &cfg.Policy.KeepMonthly)
	count("POLICY_KEEP_YEARLY", &cfg.Policy.KeepYearly)

	// Input overrides
	str("INPUT_SOURCE", &cfg.Input.Source)
	str("INPUT_FILE", &cfg.Input.File)
	str("INPUT_TIMEZONE", &cfg.Input.Timezone)
	str("INPUT_SQLITE_PATH", &cfg.Input.SQLite.Path)
	str("INPUT_SQLITE_QUERY", &cfg.Input.SQLite.Query)
	duration("INPUT_SQLITE_BUSY_TIMEOUT", &cfg.Input.SQLite.BusyTimeout)

	// Output overrides
	str("OUTPUT_LIST", &cfg.Output.List)
	str("OUTPUT_FORMAT", &cfg.Output.Format)
	str("OUTPUT_FILE", &cfg.Output.File)
	boolean("OUTPUT_COMPACT_JSON", &cfg.Output.CompactJSON)
	boolean("OUTPUT_VERDICTS", &cfg.Output.Verdicts)
	boolean("OUTPUT_OMIT_CSV_HEADER", &cfg.Output.OmitCSVHeader)
	str("OUTPUT_JOURNAL", &cfg.Output.Journal)

	// Engine overrides
	integer("ENGINE_WORKERS", &cfg.Engine.Workers)

	// Watch overrides
	str("WATCH_SCHEDULE", &cfg.Watch.Schedule)
	boolean("WATCH_FILES", &cfg.Watch.Files)
	duration("WATCH_DEBOUNCE_INTERVAL", &cfg.Watch.DebounceInterval)
	str("WATCH_METRICS_ADDRESS", &cfg.Watch.MetricsAddress)

	// Telemetry overrides
	str("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	str("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	boolean("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	str("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	str("TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment override: %w", errors.Join(errs...))
	}
	return nil
}
