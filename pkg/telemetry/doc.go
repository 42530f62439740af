// Package telemetry groups revprune's observability packages:
//
//   - logging: slog setup and run-scoped context fields
//   - metrics: Prometheus collector for evaluations and runs
//   - health: probe endpoints for the watch daemon
package telemetry
