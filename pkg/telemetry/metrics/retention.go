package metrics

import (
	"time"

	"mercator-hq/revprune/pkg/revision/retention"

	"github.com/prometheus/client_golang/prometheus"
)

// RetentionMetrics tracks engine evaluations.
//
// Metrics:
//   - revprune_retention_histories_total: histories by outcome
//   - revprune_retention_records_evaluated_total: records seen
//   - revprune_retention_records_removed_total: records marked for removal
//   - revprune_retention_verdicts_total: verdicts by action and reason
//   - revprune_retention_decision_duration_seconds: evaluation duration
type RetentionMetrics struct {
	historiesTotal   *prometheus.CounterVec
	recordsEvaluated prometheus.Counter
	recordsRemoved   prometheus.Counter
	verdictsTotal    *prometheus.CounterVec
	decisionDuration prometheus.Histogram
}

// NewRetentionMetrics creates and registers retention metrics.
func NewRetentionMetrics(namespace, subsystem string, registry *prometheus.Registry) *RetentionMetrics {
	rm := &RetentionMetrics{
		historiesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "histories_total",
				Help:      "Total number of histories evaluated, by outcome",
			},
			[]string{"outcome"},
		),

		recordsEvaluated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "records_evaluated_total",
				Help:      "Total number of records evaluated",
			},
		),

		recordsRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "records_removed_total",
				Help:      "Total number of records marked for removal",
			},
		),

		verdictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "verdicts_total",
				Help:      "Total number of verdicts, by action and reason",
			},
			[]string{"action", "reason"},
		),

		decisionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "decision_duration_seconds",
				Help:      "Duration of a full evaluation in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
			},
		),
	}

	registry.MustRegister(
		rm.historiesTotal,
		rm.recordsEvaluated,
		rm.recordsRemoved,
		rm.verdictsTotal,
		rm.decisionDuration,
	)

	return rm
}

// RecordResult adds one evaluation to the counters.
func (rm *RetentionMetrics) RecordResult(result *retention.Result, duration time.Duration) {
	for _, h := range result.Histories {
		rm.historiesTotal.WithLabelValues(string(h.Outcome)).Inc()
		for _, v := range h.Verdicts {
			rm.verdictsTotal.WithLabelValues(string(v.Action), string(v.Reason)).Inc()
		}
	}
	rm.recordsEvaluated.Add(float64(result.Evaluated()))
	rm.recordsRemoved.Add(float64(result.Decision.Len()))
	rm.decisionDuration.Observe(duration.Seconds())
}
