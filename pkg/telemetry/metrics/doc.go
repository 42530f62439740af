// Package metrics exposes revprune evaluation metrics to Prometheus.
//
// A Collector owns a private registry. Pass it to the retention engine with
// retention.WithRecorder and serve it with Handler:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	engine, err := retention.NewEngine(policy, retention.WithRecorder(collector))
//	http.Handle("/metrics", collector.Handler())
//
// Every metric lives under the "<namespace>_retention_" prefix.
package metrics
