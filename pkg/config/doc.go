// Package config provides configuration management for revprune.
//
// Configuration is read from an optional YAML file, completed with default
// values and overridden by environment variables. Command-line flags are
// applied on top by the commands themselves.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("revprune.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("revprune.yaml")
//
// An empty path loads the defaults.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention REVPRUNE_SECTION_FIELD:
//
//   - REVPRUNE_POLICY_KEEP_DAILY overrides policy.keep_daily
//   - REVPRUNE_INPUT_FILE overrides input.file
//   - REVPRUNE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// A .env file in the working directory is loaded first; variables already
// set in the environment are not replaced.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Command-line flags
//
// # Validation
//
// Validation collects every problem, including retention policy violations
// mapped to their field paths:
//
//	configuration validation failed with 2 errors:
//	  - policy.keep_daily: must not be negative (got -1)
//	  - output.format: must be text, json or csv (got "xml")
//
// # Example Configuration
//
//	policy:
//	  keep_last: 5
//	  keep_less_than_n_rev: 3
//	  keep_daily: 1
//	  keep_monthly: 2
//
//	input:
//	  file: revisions.csv
//
//	output:
//	  list: removed
//
//	watch:
//	  schedule: "0 3 * * *"
//	  files: true
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
package config
