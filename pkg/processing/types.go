package processing

import (
	"time"

	"mercator-hq/revprune/pkg/revision"
	"mercator-hq/revprune/pkg/revision/export"
)

// Report is the outcome of one pipeline run.
type Report struct {
	*export.Report

	// Rejected lists rows that looked like revisions but failed to parse.
	Rejected []*revision.MalformedRecordError

	// Ignored counts rows that are not revisions.
	Ignored int

	// Duration is the wall time of the run.
	Duration time.Duration
}
