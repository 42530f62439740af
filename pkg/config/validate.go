package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/revprune/pkg/revision"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "policy.keep_daily").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validatePolicy(&cfg.Policy)...)
	errs = append(errs, validateInput(&cfg.Input)...)
	errs = append(errs, validateOutput(&cfg.Output)...)
	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateWatch(&cfg.Watch)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validatePolicy builds the policy and maps its violations onto config
// field paths.
func validatePolicy(p *PolicyConfig) []FieldError {
	policy, err := p.Build()
	if err != nil {
		return []FieldError{{Field: "policy", Message: err.Error()}}
	}

	var invalid *revision.InvalidPolicyError
	if err := policy.Validate(); errors.As(err, &invalid) {
		errs := make([]FieldError, 0, len(invalid.Violations))
		for _, v := range invalid.Violations {
			errs = append(errs, FieldError{
				Field:   "policy." + strings.ReplaceAll(v.Field, "-", "_"),
				Message: v.Message,
			})
		}
		return errs
	}
	return nil
}

func validateInput(in *InputConfig) []FieldError {
	var errs []FieldError

	switch in.Source {
	case "csv":
	case "sqlite":
		if in.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "input.sqlite.path", Message: "field is required when input.source is sqlite"})
		}
	default:
		errs = append(errs, FieldError{Field: "input.source", Message: fmt.Sprintf("must be csv or sqlite (got %q)", in.Source)})
	}

	if _, err := time.LoadLocation(in.Timezone); err != nil {
		errs = append(errs, FieldError{Field: "input.timezone", Message: err.Error()})
	}
	if in.SQLite.BusyTimeout < 0 {
		errs = append(errs, FieldError{Field: "input.sqlite.busy_timeout", Message: "must not be negative"})
	}

	return errs
}

func validateOutput(out *OutputConfig) []FieldError {
	var errs []FieldError

	switch out.List {
	case "", "all", "removed":
	default:
		errs = append(errs, FieldError{Field: "output.list", Message: fmt.Sprintf("must be all or removed (got %q)", out.List)})
	}

	switch out.Format {
	case "text", "json", "csv":
	default:
		errs = append(errs, FieldError{Field: "output.format", Message: fmt.Sprintf("must be text, json or csv (got %q)", out.Format)})
	}

	return errs
}

func validateEngine(e *EngineConfig) []FieldError {
	if e.Workers < 1 {
		return []FieldError{{Field: "engine.workers", Message: fmt.Sprintf("must be at least 1 (got %d)", e.Workers)}}
	}
	return nil
}

func validateWatch(w *WatchConfig) []FieldError {
	var errs []FieldError

	if w.Schedule != "" {
		if _, err := cron.ParseStandard(w.Schedule); err != nil {
			errs = append(errs, FieldError{Field: "watch.schedule", Message: fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}
	if w.DebounceInterval < 0 {
		errs = append(errs, FieldError{Field: "watch.debounce_interval", Message: "must not be negative"})
	}

	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(t.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: fmt.Sprintf("unknown level %q", t.Logging.Level)})
	}

	switch strings.ToLower(t.Logging.Format) {
	case "text", "json", "console":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Message: fmt.Sprintf("unknown format %q", t.Logging.Format)})
	}

	if !strings.HasPrefix(t.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
	}

	return errs
}
