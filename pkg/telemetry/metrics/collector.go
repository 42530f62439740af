package metrics

import (
	"time"

	"mercator-hq/revprune/pkg/config"
	"mercator-hq/revprune/pkg/revision/retention"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultSubsystem groups every revprune metric.
const DefaultSubsystem = "retention"

// Collector owns the Prometheus registry for revprune and records
// evaluation, ingestion and run metrics.
//
// Collector implements retention.Recorder, so it can be handed straight to
// retention.WithRecorder.
type Collector struct {
	registry *prometheus.Registry

	retention *RetentionMetrics
	runs      *RunMetrics
}

var _ retention.Recorder = (*Collector)(nil)

// NewCollector creates a collector registering its metrics with registry.
// A nil registry gets a fresh one. Empty namespaces default to "revprune".
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	namespace := config.DefaultMetricsNamespace
	if cfg != nil && cfg.Namespace != "" {
		namespace = cfg.Namespace
	}

	return &Collector{
		registry:  registry,
		retention: NewRetentionMetrics(namespace, DefaultSubsystem, registry),
		runs:      NewRunMetrics(namespace, DefaultSubsystem, registry),
	}
}

// Registry returns the registry the collector writes to.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordEvaluation records the outcome of one engine evaluation.
func (c *Collector) RecordEvaluation(result *retention.Result, duration time.Duration) {
	if result == nil {
		return
	}
	c.retention.RecordResult(result, duration)
}

// RecordIngest records how the rows of one input were classified.
func (c *Collector) RecordIngest(accepted, ignored, rejected int) {
	c.runs.RecordRows(accepted, ignored, rejected)
}

// RecordRun records a completed run.
//
// Parameters:
//   - trigger: what started the run ("cli", "schedule", "file")
//   - err: the run error, nil on success
func (c *Collector) RecordRun(trigger string, err error) {
	c.runs.RecordRun(trigger, err, time.Now())
}
