package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics tracks pipeline runs and the rows they ingest.
//
// Metrics:
//   - revprune_retention_runs_total: runs by trigger and status
//   - revprune_retention_last_run_timestamp_seconds: completion time of the last run
//   - revprune_retention_rows_total: ingested rows by status
type RunMetrics struct {
	runsTotal    *prometheus.CounterVec
	lastRunTime  *prometheus.GaugeVec
	rowsIngested *prometheus.CounterVec
}

// NewRunMetrics creates and registers run metrics.
func NewRunMetrics(namespace, subsystem string, registry *prometheus.Registry) *RunMetrics {
	rm := &RunMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "runs_total",
				Help:      "Total number of pipeline runs, by trigger and status",
			},
			[]string{"trigger", "status"},
		),

		lastRunTime: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time of the last completed run, by status",
			},
			[]string{"status"},
		),

		rowsIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rows_total",
				Help:      "Total number of input rows, by status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(rm.runsTotal, rm.lastRunTime, rm.rowsIngested)
	return rm
}

// RecordRun counts a run that finished at now.
func (rm *RunMetrics) RecordRun(trigger string, err error, now time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	if trigger == "" {
		trigger = "unknown"
	}
	rm.runsTotal.WithLabelValues(trigger, status).Inc()
	rm.lastRunTime.WithLabelValues(status).Set(float64(now.Unix()))
}

// RecordRows counts ingested rows.
func (rm *RunMetrics) RecordRows(accepted, ignored, rejected int) {
	rm.rowsIngested.WithLabelValues("accepted").Add(float64(accepted))
	rm.rowsIngested.WithLabelValues("ignored").Add(float64(ignored))
	rm.rowsIngested.WithLabelValues("rejected").Add(float64(rejected))
}
