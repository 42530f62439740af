package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mercator-hq/revprune/pkg/cli"
	"mercator-hq/revprune/pkg/config"
	"mercator-hq/revprune/pkg/processing"
	"mercator-hq/revprune/pkg/revision/retention"
	"mercator-hq/revprune/pkg/telemetry/health"
	"mercator-hq/revprune/pkg/telemetry/logging"
	"mercator-hq/revprune/pkg/telemetry/metrics"
	"mercator-hq/revprune/pkg/watcher"
)

var watchFlags struct {
	schedule    string
	files       bool
	metricsAddr string
	debounce    time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-evaluate the policy on a schedule or when files change",
	Long: `Run the prune pipeline repeatedly until interrupted.

A run happens at startup, on every tick of the cron schedule, and (with
--files) whenever the input file or the config file changes. A changed
config file is reloaded before the run. Each run starts from scratch.

With --metrics-addr, Prometheus metrics and health probes are served:
  /metrics   evaluation, ingestion and run counters
  /health    liveness
  /ready     scheduler and input checks
  /version   build information

Examples:
  # Nightly evaluation with a journal
  revprune watch -c revprune.yaml --schedule "0 3 * * *" --journal decisions.db

  # Re-run whenever the export is rewritten
  revprune watch --file revisions.csv --keep-daily=1 --files --metrics-addr :9090`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	fs := watchCmd.Flags()
	addPolicyFlags(fs)
	addInputFlags(fs)
	addOutputFlags(fs)
	fs.StringVar(&watchFlags.schedule, "schedule", "", "cron expression for periodic runs")
	fs.BoolVar(&watchFlags.files, "files", false, "re-run when the input or config file changes")
	fs.StringVar(&watchFlags.metricsAddr, "metrics-addr", "", "serve metrics and health probes on this address")
	fs.DurationVar(&watchFlags.debounce, "debounce", 0, "wait for file events to settle")
}

// applyWatchFlags overrides the watch section. Commands without these
// flags leave it untouched.
func applyWatchFlags(fs *pflag.FlagSet, w *config.WatchConfig) {
	if fs.Changed("schedule") {
		w.Schedule = watchFlags.schedule
	}
	if fs.Changed("files") {
		w.Files = watchFlags.files
	}
	if fs.Changed("metrics-addr") {
		w.MetricsAddress = watchFlags.metricsAddr
	}
	if fs.Changed("debounce") {
		w.DebounceInterval = watchFlags.debounce
	}
}

// daemon serializes runs triggered by the scheduler and the file watcher.
type daemon struct {
	mu        sync.Mutex
	flags     *pflag.FlagSet
	collector *metrics.Collector
	stdout    io.Writer
	logger    *slog.Logger
}

// run resolves the current configuration and processes it once.
func (d *daemon) run(ctx context.Context, trigger string) (*processing.Report, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cfg, err := resolveConfig(d.flags)
	if err != nil {
		return nil, err
	}

	p := processing.NewProcessor(cfg,
		processing.WithStdin(nil),
		processing.WithStdout(d.stdout),
		processing.WithCollector(d.collector),
	)
	return p.Process(logging.WithTrigger(ctx, trigger))
}

// job adapts run to the scheduler.
func (d *daemon) job(ctx context.Context) (*retention.Result, error) {
	report, err := d.run(ctx, "schedule")
	if err != nil {
		return nil, err
	}
	return report.Result, nil
}

// onChange reloads the config file when it changed, then runs.
func (d *daemon) onChange(ctx context.Context, configPath string) func(path string) error {
	return func(path string) error {
		if path == configPath {
			cfg, err := config.ReloadConfig()
			if err != nil {
				return fmt.Errorf("failed to reload config: %w", err)
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}
			d.logger.Info("configuration reloaded", "path", path)
		}
		_, err := d.run(ctx, "file")
		return err
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Watch.Schedule == "" && !cfg.Watch.Files {
		return cli.NewConfigError("watch", "nothing to watch: set --schedule or --files")
	}

	inputs := inputPaths(cfg)
	if cfg.Watch.Files && len(inputs) == 0 {
		return cli.NewConfigError("input.file", "--files needs an input file to watch")
	}

	ctx, stop := cli.SetupSignalHandler(logging.WithCommand(cmd.Context(), "watch"))
	defer stop()

	d := &daemon{
		flags:     cmd.Flags(),
		collector: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
		stdout:    cmd.OutOrStdout(),
		logger:    slog.Default().With("component", "watch"),
	}

	scheduler := retention.NewScheduler(cfg.Watch.Schedule, d.job)
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer scheduler.Stop()

	if cfg.Watch.MetricsAddress != "" {
		srv := newTelemetryServer(cfg, d.collector, scheduler, inputs)
		go func() {
			d.logger.Info("serving metrics", "address", srv.Addr, "path", cfg.Telemetry.Metrics.Path)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				d.logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if _, err := d.run(ctx, "startup"); err != nil {
		d.logger.Error("initial run failed", "error", err)
	}

	if !cfg.Watch.Files {
		<-ctx.Done()
		d.logger.Info("shutting down")
		return nil
	}

	paths := inputs
	configPath := ""
	if p := config.Path(); p != "" {
		if abs, err := filepath.Abs(p); err == nil {
			configPath = abs
			paths = append(paths, abs)
		}
	}

	fw, err := watcher.New(&watcher.Config{
		Paths:            paths,
		DebounceInterval: cfg.Watch.DebounceInterval,
	})
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer fw.Stop()

	if err := fw.Watch(ctx, d.onChange(ctx, configPath)); err != nil {
		return cli.NewCommandError("watch", err)
	}
	d.logger.Info("shutting down")
	return nil
}

// inputPaths returns the absolute path of the configured input file.
func inputPaths(cfg *config.Config) []string {
	path := cfg.Input.File
	if cfg.Input.Source == "sqlite" {
		path = cfg.Input.SQLite.Path
	}
	if path == "" {
		return nil
	}
	if abs, err := filepath.Abs(path); err == nil {
		return []string{abs}
	}
	return []string{path}
}

// newTelemetryServer serves metrics and health probes.
func newTelemetryServer(cfg *config.Config, collector *metrics.Collector, scheduler *retention.Scheduler, inputs []string) *http.Server {
	mux := collector.NewServeMux(cfg.Telemetry.Metrics.Path)

	checker := health.New(5 * time.Second)
	if cfg.Watch.Schedule != "" {
		checker.RegisterCheck("scheduler", health.SchedulerCheck(scheduler))
	}
	for _, p := range inputs {
		checker.RegisterCheck("input:"+filepath.Base(p), health.FileCheck(p))
	}
	health.Register(mux, checker, Version, GitCommit, BuildDate)

	return &http.Server{
		Addr:              cfg.Watch.MetricsAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
