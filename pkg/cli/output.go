package cli

import (
	"context"
	"fmt"
	"io"

	"mercator-hq/revprune/pkg/revision/export"
)

// OutputFormat represents the output format of a prune report.
type OutputFormat string

const (
	// FormatText is the plain listing followed by the summary line (default).
	FormatText OutputFormat = "text"
	// FormatJSON is the JSON report.
	FormatJSON OutputFormat = "json"
	// FormatCSV is one CSV row per record.
	FormatCSV OutputFormat = "csv"
)

// ListMode selects what the text format lists before the summary.
type ListMode string

const (
	// ListNone prints the summary only.
	ListNone ListMode = ""
	// ListAll prints every record, tagging removed ones.
	ListAll ListMode = "all"
	// ListRemoved prints the removed IDs and nothing else.
	ListRemoved ListMode = "removed"
)

// ParseOutputFormat validates a --format value. Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatCSV:
		return OutputFormat(s), nil
	default:
		return "", NewConfigError("format", fmt.Sprintf("unknown output format %q (want text, json or csv)", s))
	}
}

// ParseListMode validates a --list value.
func ParseListMode(s string) (ListMode, error) {
	switch ListMode(s) {
	case ListNone, ListAll, ListRemoved:
		return ListMode(s), nil
	default:
		return "", NewConfigError("list", fmt.Sprintf("unknown list mode %q (want all or removed)", s))
	}
}

// ReportOptions controls how a report is rendered.
type ReportOptions struct {
	Format OutputFormat
	List   ListMode

	// CompactJSON disables indentation in the json format
	CompactJSON bool

	// Verdicts adds per-history verdicts to the json format
	Verdicts bool

	// OmitCSVHeader drops the header row of the csv format
	OmitCSVHeader bool
}

// Formatter renders a prune report.
type Formatter interface {
	FormatTo(ctx context.Context, w io.Writer, report *export.Report) error
}

// TextFormatter writes the listing selected by List and the summary line.
type TextFormatter struct {
	List ListMode
}

// FormatTo writes the report as text. With ListRemoved only the sorted IDs
// are written, so the output can be piped into a deletion command.
func (f *TextFormatter) FormatTo(ctx context.Context, w io.Writer, report *export.Report) error {
	switch f.List {
	case ListRemoved:
		return export.WriteRemoved(w, report.Result.Decision)
	case ListAll:
		if err := export.WriteAnnotated(w, report.Histories, report.Result.Decision); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Success: %s\n", report.Summary())
	return err
}

// exporterFormatter adapts an export.Exporter to Formatter.
type exporterFormatter struct {
	exporter export.Exporter
}

func (f exporterFormatter) FormatTo(ctx context.Context, w io.Writer, report *export.Report) error {
	return f.exporter.Export(ctx, report, w)
}

// NewFormatter creates a formatter for the options.
func NewFormatter(opts ReportOptions) Formatter {
	switch opts.Format {
	case FormatJSON:
		return exporterFormatter{export.NewJSONExporter(!opts.CompactJSON, opts.Verdicts)}
	case FormatCSV:
		return exporterFormatter{export.NewCSVExporter(!opts.OmitCSVHeader)}
	default:
		return &TextFormatter{List: opts.List}
	}
}
