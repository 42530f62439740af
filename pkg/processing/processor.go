package processing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"mercator-hq/revprune/pkg/cli"
	"mercator-hq/revprune/pkg/config"
	"mercator-hq/revprune/pkg/revision/export"
	"mercator-hq/revprune/pkg/revision/ingest"
	"mercator-hq/revprune/pkg/revision/retention"
	"mercator-hq/revprune/pkg/telemetry/logging"
	"mercator-hq/revprune/pkg/telemetry/metrics"
)

// Processor runs the read, group, evaluate and report pipeline for one
// configuration. It holds no per-run state and may be run repeatedly, as
// the watch command does.
type Processor struct {
	cfg       *config.Config
	stdin     io.Reader
	stdout    io.Writer
	collector *metrics.Collector
	logger    *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithStdin sets the fallback input for the csv source.
func WithStdin(r io.Reader) Option {
	return func(p *Processor) {
		p.stdin = r
	}
}

// WithStdout sets where reports go when output.file is empty.
func WithStdout(w io.Writer) Option {
	return func(p *Processor) {
		p.stdout = w
	}
}

// WithCollector records ingestion, evaluation and run metrics.
func WithCollector(c *metrics.Collector) Option {
	return func(p *Processor) {
		p.collector = c
	}
}

// NewProcessor creates a processor for cfg. The configuration must have
// passed config.Validate.
func NewProcessor(cfg *config.Config, opts ...Option) *Processor {
	p := &Processor{
		cfg:    cfg,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		logger: slog.Default().With("component", "processing"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the pipeline once and returns its report. The report is
// rendered to the configured output and appended to the journal when one
// is set. An empty input yields an empty report and writes nothing.
func (p *Processor) Process(ctx context.Context) (report *Report, err error) {
	start := time.Now()
	defer func() {
		if p.collector != nil {
			p.collector.RecordRun(logging.GetTrigger(ctx), err)
		}
	}()

	policy, err := p.cfg.Policy.Build()
	if err != nil {
		return nil, err
	}

	engineOpts := []retention.Option{retention.WithWorkers(p.cfg.Engine.Workers)}
	if p.collector != nil {
		engineOpts = append(engineOpts, retention.WithRecorder(p.collector))
	}
	engine, err := retention.NewEngine(policy, engineOpts...)
	if err != nil {
		return nil, err
	}

	rows, err := p.readRows(ctx)
	if err != nil {
		return nil, err
	}

	grouped, err := p.group(rows)
	if err != nil {
		return nil, err
	}
	if p.collector != nil {
		p.collector.RecordIngest(grouped.Records(), grouped.Ignored, len(grouped.Rejected))
	}

	result, err := engine.Evaluate(grouped.Histories)
	if err != nil {
		return nil, err
	}

	rep := export.NewReport(policy, grouped.TotalRows, grouped.Histories, result)
	ctx = logging.WithRunID(ctx, rep.RunID)

	report = &Report{
		Report:   rep,
		Rejected: grouped.Rejected,
		Ignored:  grouped.Ignored,
		Duration: time.Since(start),
	}

	if len(rows) == 0 {
		p.logger.InfoContext(ctx, "no input rows, nothing to report", "run_id", rep.RunID)
		return report, nil
	}

	if err := p.write(ctx, rep); err != nil {
		return nil, err
	}
	if err := p.journal(ctx, rep); err != nil {
		return nil, err
	}

	summary := rep.Summary()
	p.logger.InfoContext(ctx, "prune evaluation completed",
		"run_id", rep.RunID,
		"trigger", logging.GetTrigger(ctx),
		"removed", summary.Removed,
		"total_rows", summary.Total,
		"parents", summary.Parents,
		"rejected", len(grouped.Rejected),
		"duration_ms", report.Duration.Milliseconds(),
	)

	return report, nil
}

// readRows reads every row from the configured source.
func (p *Processor) readRows(ctx context.Context) ([][]string, error) {
	in := p.cfg.Input
	if in.Source == "sqlite" {
		src, err := ingest.NewSQLiteSource(&ingest.SQLiteSourceConfig{
			Path:        in.SQLite.Path,
			Query:       in.SQLite.Query,
			BusyTimeout: in.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return src.Rows(ctx)
	}

	src := &ingest.CSVSource{Path: in.File, Stdin: p.stdin}
	return src.Rows(ctx)
}

// group turns rows into histories in the configured timezone.
func (p *Processor) group(rows [][]string) (*ingest.GroupResult, error) {
	groupCfg := ingest.DefaultConfig()
	if tz := p.cfg.Input.Timezone; tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("failed to load timezone %q: %w", tz, err)
		}
		groupCfg.Location = loc
	}
	return ingest.NewGrouper(groupCfg).Group(rows), nil
}

// write renders the report to output.file or stdout.
func (p *Processor) write(ctx context.Context, rep *export.Report) error {
	out := p.cfg.Output

	format, err := cli.ParseOutputFormat(out.Format)
	if err != nil {
		return err
	}
	list, err := cli.ParseListMode(out.List)
	if err != nil {
		return err
	}
	formatter := cli.NewFormatter(cli.ReportOptions{
		Format:        format,
		List:          list,
		CompactJSON:   out.CompactJSON,
		Verdicts:      out.Verdicts,
		OmitCSVHeader: out.OmitCSVHeader,
	})

	w := p.stdout
	if out.File != "" {
		f, err := os.Create(out.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return formatter.FormatTo(ctx, w, rep)
}

// journal appends the run to output.journal when configured.
func (p *Processor) journal(ctx context.Context, rep *export.Report) error {
	if p.cfg.Output.Journal == "" {
		return nil
	}

	j, err := export.NewSQLiteJournal(export.JournalConfig{Path: p.cfg.Output.Journal})
	if err != nil {
		return err
	}
	defer j.Close()

	return j.Write(ctx, rep)
}
