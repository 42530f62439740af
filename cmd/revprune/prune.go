package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/revprune/pkg/cli"
	"mercator-hq/revprune/pkg/processing"
	"mercator-hq/revprune/pkg/telemetry/logging"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Decide which revisions to prune",
	Long: `Read revisions, apply the retention policy and report the IDs to prune.

Input is CSV with the columns ID, post_name and post_date_gmt, as printed by
"wp revisions list --format=csv". Rows whose post_name is not
"<parent>-revision-v1" or "<parent>-autosave-v1" are ignored. A first row
starting with "ID" is treated as a header.

Policy flags override the config file. Quotas of 0 are allowed: the tier
keeps nothing and revisions fall through to the next one.

Examples:
  # Summary only
  revprune prune --file revisions.csv --keep-daily=1 --keep-monthly=12

  # Annotated listing of every revision
  revprune prune --file revisions.csv --keep-last=5 --list

  # IDs to delete, one per line
  revprune prune --file revisions.csv --keep-weekly=1 --list=removed

  # Read a SQLite export and record the run
  revprune prune --sqlite-path site.db --keep-yearly=1 --journal decisions.db`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	addPolicyFlags(pruneCmd.Flags())
	addInputFlags(pruneCmd.Flags())
	addOutputFlags(pruneCmd.Flags())
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd.Flags())
	if err != nil {
		return err
	}

	ctx := logging.WithTrigger(logging.WithCommand(cmd.Context(), "prune"), "cli")
	p := processing.NewProcessor(cfg,
		processing.WithStdin(cmd.InOrStdin()),
		processing.WithStdout(cmd.OutOrStdout()),
	)
	if _, err := p.Process(ctx); err != nil {
		return cli.NewCommandError("prune", err)
	}
	return nil
}
