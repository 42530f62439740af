package config

import (
	"fmt"
	"time"

	"mercator-hq/revprune/pkg/revision/retention"
)

// Config is the root configuration structure for revprune.
// It contains the retention policy, where revisions are read from, how
// decisions are reported, and the watch-mode and telemetry settings.
type Config struct {
	// Policy is the retention policy applied to every history.
	Policy PolicyConfig `yaml:"policy"`

	// Input selects and configures the revision source.
	Input InputConfig `yaml:"input"`

	// Output controls listings, export format and the decision journal.
	Output OutputConfig `yaml:"output"`

	// Engine tunes evaluation.
	Engine EngineConfig `yaml:"engine"`

	// Watch configures `revprune watch`.
	Watch WatchConfig `yaml:"watch"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PolicyConfig mirrors the keep-* command-line options. Unset counts are nil.
type PolicyConfig struct {
	// KeepLast always keeps the N most recent revisions of each post.
	KeepLast *int `yaml:"keep_last"`

	// KeepLessThanNRev leaves posts with at most N revisions untouched.
	KeepLessThanNRev *int `yaml:"keep_less_than_n_rev"`

	// KeepBefore keeps revisions at or before this date.
	// Format: "2006-01-02", "2006-01-02 15:04:05" or RFC 3339.
	KeepBefore string `yaml:"keep_before"`

	// KeepAfter keeps revisions at or after this date.
	KeepAfter string `yaml:"keep_after"`

	KeepHourly  *int `yaml:"keep_hourly"`
	KeepDaily   *int `yaml:"keep_daily"`
	KeepWeekly  *int `yaml:"keep_weekly"`
	KeepMonthly *int `yaml:"keep_monthly"`
	KeepYearly  *int `yaml:"keep_yearly"`
}

// IsZero reports whether no option is set.
func (p PolicyConfig) IsZero() bool {
	return p.KeepLast == nil && p.KeepLessThanNRev == nil &&
		p.KeepBefore == "" && p.KeepAfter == "" &&
		p.KeepHourly == nil && p.KeepDaily == nil && p.KeepWeekly == nil &&
		p.KeepMonthly == nil && p.KeepYearly == nil
}

// Quota returns the configured quota for granularity g.
func (p PolicyConfig) Quota(g retention.Granularity) *int {
	switch g {
	case retention.Hour:
		return p.KeepHourly
	case retention.Day:
		return p.KeepDaily
	case retention.Week:
		return p.KeepWeekly
	case retention.Month:
		return p.KeepMonthly
	case retention.Year:
		return p.KeepYearly
	default:
		return nil
	}
}

// Build converts the configuration into a retention.Policy. Dates are parsed
// here; counts are checked by the engine.
func (p PolicyConfig) Build() (retention.Policy, error) {
	policy := retention.Policy{
		KeepLast:         p.KeepLast,
		KeepLessThanNRev: p.KeepLessThanNRev,
	}

	if p.KeepBefore != "" {
		t, err := retention.ParseDate(p.KeepBefore)
		if err != nil {
			return retention.Policy{}, fmt.Errorf("keep-before: %w", err)
		}
		policy.KeepBefore = &t
	}
	if p.KeepAfter != "" {
		t, err := retention.ParseDate(p.KeepAfter)
		if err != nil {
			return retention.Policy{}, fmt.Errorf("keep-after: %w", err)
		}
		policy.KeepAfter = &t
	}

	for _, g := range retention.Granularities {
		if q := p.Quota(g); q != nil {
			policy.SetQuota(g, q)
		}
	}

	return policy, nil
}

// InputConfig selects where revisions are read from.
type InputConfig struct {
	// Source is the input kind: "csv" or "sqlite".
	// Default: "csv"
	Source string `yaml:"source"`

	// File is the CSV file to read. Standard input is used when empty or
	// unreadable.
	File string `yaml:"file"`

	// Timezone applies to timestamps without a zone.
	// Default: "UTC"
	Timezone string `yaml:"timezone"`

	// SQLite configures the sqlite source.
	SQLite SQLiteInputConfig `yaml:"sqlite"`
}

// SQLiteInputConfig configures reading from a local SQLite export.
type SQLiteInputConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// Query returns ID, post_name and post_date_gmt columns.
	// Default: revisions of the wp_posts table
	Query string `yaml:"query"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// OutputConfig controls what a run prints and records.
type OutputConfig struct {
	// List selects a listing: "" (summary only), "all" or "removed".
	List string `yaml:"list"`

	// Format is the report format: "text", "json" or "csv".
	// Default: "text"
	Format string `yaml:"format"`

	// File receives the report instead of standard output.
	File string `yaml:"file"`

	// CompactJSON disables JSON indentation.
	CompactJSON bool `yaml:"compact_json"`

	// Verdicts adds per-record verdicts to JSON reports.
	Verdicts bool `yaml:"verdicts"`

	// OmitCSVHeader drops the CSV header row.
	OmitCSVHeader bool `yaml:"omit_csv_header"`

	// Journal is a SQLite file every run is appended to. Empty disables it.
	Journal string `yaml:"journal"`
}

// EngineConfig tunes evaluation.
type EngineConfig struct {
	// Workers is the number of goroutines evaluating histories.
	// Default: 1
	Workers int `yaml:"workers"`
}

// WatchConfig configures continuous re-evaluation.
type WatchConfig struct {
	// Schedule is a cron expression for periodic runs. Empty disables it.
	Schedule string `yaml:"schedule"`

	// Files re-runs whenever the input or configuration file changes.
	Files bool `yaml:"files"`

	// DebounceInterval collapses bursts of file events.
	// Default: 500ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// MetricsAddress serves Prometheus metrics when set (e.g., ":9090").
	MetricsAddress string `yaml:"metrics_address"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum level: "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "text", "json" or "console".
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line in records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Path is the HTTP path metrics are served on.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "revprune"
	Namespace string `yaml:"namespace"`
}
