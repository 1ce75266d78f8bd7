/*
Package cli provides the helpers shared by the kae subcommands.

Output Formatting:

Validation reports and history records can be printed as text, JSON or YAML:

	format, err := cli.ParseOutputFormat(flagFormat)
	report := cli.NewReport(results, normalized)
	if err := cli.NewFormatter(format).FormatTo(os.Stdout, report); err != nil {
		return err
	}
	return report.Err()

Exit Codes:

ExitCode maps a command error to the process status: 0 when every
descriptor is valid, 1 when at least one is invalid and 2 for usage,
configuration or I/O failures.

Signal Handling:

	ctx, cancel := cli.SetupSignalHandler(context.Background())
	defer cancel()
*/
package cli
