// Package logging configures structured logging for revprune.
//
// The package wraps log/slog with three output formats (json, text and
// console) and a small set of context keys that tag every line of a run:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	logger.SetDefault()
//
//	ctx = logging.WithRunID(ctx, report.RunID)
//	logger.InfoContext(ctx, "evaluation complete", "removed", n)
//
// After SetDefault, package-level loggers obtained with
// slog.Default().With("component", ...) write through the same handler.
// Logs go to stderr by default so stdout stays reserved for reports.
package logging
