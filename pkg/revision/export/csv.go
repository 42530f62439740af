package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"mercator-hq/revprune/pkg/revision"
)

// CSVExporter exports one row per record with its verdict.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes the report's records to w in history order.
func (e *CSVExporter) Export(ctx context.Context, report *Report, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(e.getHeaderRow()); err != nil {
			return revision.NewExportError("csv", 0, err)
		}
	}

	count := 0
	for _, h := range report.Histories {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, r := range h.Entries {
			if err := writer.Write(e.recordToRow(report, r)); err != nil {
				return revision.NewExportError("csv", count, err)
			}
			count++
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return revision.NewExportError("csv", count, err)
	}
	return nil
}

// getHeaderRow returns the CSV header row.
func (e *CSVExporter) getHeaderRow() []string {
	return []string{"id", "parent_id", "timestamp", "action", "reason"}
}

// recordToRow converts a record and its verdict to a CSV row.
func (e *CSVExporter) recordToRow(report *Report, r revision.Record) []string {
	action, reason := "keep", ""
	if report.Result != nil {
		if v, ok := report.Result.VerdictFor(r.ID); ok {
			action, reason = string(v.Action), string(v.Reason)
		} else if report.Result.Decision.Has(r.ID) {
			action = "remove"
		}
	}

	return []string{
		strconv.FormatInt(r.ID, 10),
		strconv.FormatInt(r.ParentID, 10),
		r.Timestamp.UTC().Format(time.RFC3339),
		action,
		reason,
	}
}
