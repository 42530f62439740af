// Package health serves the watch daemon's probe endpoints.
//
// The daemon registers a SchedulerCheck and a FileCheck per watched input,
// then mounts the handlers next to the metrics endpoint:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("scheduler", health.SchedulerCheck(scheduler))
//	health.Register(mux, checker, version, commit, buildTime)
package health
