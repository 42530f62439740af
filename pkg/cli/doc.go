/*
Package cli provides helpers shared by the revprune commands.

Report formatting:

	formatter := cli.NewFormatter(cli.ReportOptions{Format: cli.FormatText, List: cli.ListAll})
	if err := formatter.FormatTo(ctx, os.Stdout, report); err != nil {
		return err
	}

Signal handling for the watch daemon:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Errors returned by commands are mapped to exit codes with ExitCode.
*/
package cli
