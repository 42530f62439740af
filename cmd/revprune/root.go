package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/revprune/pkg/cli"
	"mercator-hq/revprune/pkg/config"
	"mercator-hq/revprune/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "revprune",
	Short: "revprune - revision retention decisions",
	Long: `revprune decides which revisions of each post a retention policy keeps.

Revisions are grouped by parent post and classified newest first:
  - posts with few revisions can be skipped entirely
  - revisions before or after a date can be protected
  - the N newest revisions can always be kept
  - hourly, daily, weekly, monthly and yearly quotas keep the rest

Nothing is deleted. revprune reports the IDs that would be pruned.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initRuntime,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and REVPRUNE_* variables when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every decision (debug level)")
}

// initRuntime loads the configuration and installs the logger before any
// subcommand runs.
func initRuntime(cmd *cobra.Command, args []string) error {
	if cmd.Name() == versionCmd.Name() {
		return nil
	}

	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("config", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()
	if cfg == nil {
		cfg = config.Default()
	}
	return setupLogging(cfg)
}

// setupLogging installs the configured logger as the slog default.
func setupLogging(cfg *config.Config) error {
	level := cfg.Telemetry.Logging.Level
	if verbose {
		level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    os.Stderr,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.SetDefault()
	return nil
}
