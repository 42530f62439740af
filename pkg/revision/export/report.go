package export

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"mercator-hq/revprune/pkg/revision"
	"mercator-hq/revprune/pkg/revision/retention"
)

// Report bundles one evaluation for rendering.
type Report struct {
	// RunID identifies the evaluation in logs, JSON output and the journal.
	RunID string

	// GeneratedAt is when the evaluation finished.
	GeneratedAt time.Time

	// Policy is the command-line rendering of the applied policy.
	Policy string

	// TotalRows counts input rows, header excluded.
	TotalRows int

	// Histories are the engine's input, newest-first.
	Histories []revision.History

	// Result is the engine's output.
	Result *retention.Result
}

// NewReport creates a report with a fresh run ID.
func NewReport(policy retention.Policy, totalRows int, histories []revision.History, result *retention.Result) *Report {
	return &Report{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Policy:      policy.String(),
		TotalRows:   totalRows,
		Histories:   histories,
		Result:      result,
	}
}

// Summary counts what a run removed.
type Summary struct {
	Removed int `json:"removed"`
	Total   int `json:"total_rows"`
	Parents int `json:"parents"`
}

// String returns the one-line summary printed after a run.
func (s Summary) String() string {
	return fmt.Sprintf("Prune %d revisions out of %d among %d parent posts", s.Removed, s.Total, s.Parents)
}

// Summary returns the report's counts.
func (r *Report) Summary() Summary {
	s := Summary{Total: r.TotalRows, Parents: len(r.Histories)}
	if r.Result != nil {
		s.Removed = r.Result.Decision.Len()
	}
	return s
}

// Exporter renders a report to a writer.
type Exporter interface {
	Export(ctx context.Context, report *Report, w io.Writer) error
}

// WriteRemoved writes one removed ID per line in ascending numeric order.
func WriteRemoved(w io.Writer, decision revision.Decision) error {
	var b strings.Builder
	for _, id := range decision.IDs() {
		b.WriteString(strconv.FormatInt(id, 10))
		b.WriteByte('\n')
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return revision.NewExportError("removed", decision.Len(), err)
	}
	return nil
}

// WriteAnnotated writes every record's raw fields tab-joined, one per line,
// history by history. Removed records end with "\t[remove]".
func WriteAnnotated(w io.Writer, histories []revision.History, decision revision.Decision) error {
	var b strings.Builder
	n := 0
	for _, h := range histories {
		for _, r := range h.Entries {
			b.WriteString(strings.Join(r.Fields, "\t"))
			if decision.Has(r.ID) {
				b.WriteString("\t[remove]")
			}
			b.WriteByte('\n')
			n++
		}
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return revision.NewExportError("list", n, err)
	}
	return nil
}
