package export

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"mercator-hq/revprune/pkg/revision"
	"mercator-hq/revprune/pkg/revision/retention"
)

// JSONExporter exports a report as a single JSON document.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool

	// Verdicts includes per-record verdicts for every history.
	Verdicts bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty, verdicts bool) *JSONExporter {
	return &JSONExporter{
		Pretty:   pretty,
		Verdicts: verdicts,
	}
}

type jsonReport struct {
	RunID       string                    `json:"run_id"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Policy      string                    `json:"policy"`
	Summary     Summary                   `json:"summary"`
	Removed     []int64                   `json:"removed"`
	Histories   []retention.HistoryResult `json:"histories,omitempty"`
}

// Export writes the report to w.
func (e *JSONExporter) Export(ctx context.Context, report *Report, w io.Writer) error {
	doc := jsonReport{
		RunID:       report.RunID,
		GeneratedAt: report.GeneratedAt,
		Policy:      report.Policy,
		Summary:     report.Summary(),
		Removed:     []int64{},
	}
	if report.Result != nil {
		doc.Removed = report.Result.Decision.IDs()
		if e.Verdicts {
			doc.Histories = report.Result.Histories
		}
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return revision.NewExportError("json", doc.Summary.Removed, err)
	}

	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return revision.NewExportError("json", doc.Summary.Removed, err)
	}

	return nil
}
