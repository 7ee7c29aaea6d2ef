/*
Package cli provides helpers shared by the parley commands.

Errors: ConfigError and CommandError classify failures, and ExitCode maps
them to process exit codes.

Output: commands print results as text or JSON through a Formatter.

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
	    return err
	}
	return formatter.FormatTo(os.Stdout, result)

Progress: batch operations report progress on a writer.

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(len(calls)))
	for i := range calls {
	    // validate
	    progress.Update(int64(i + 1))
	}
	progress.Finish()

Signals: SignalContext returns a context cancelled on SIGINT or SIGTERM.
*/
package cli
