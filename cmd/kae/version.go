package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kae-hq/kae/pkg/cli"
	"kae-hq/kae/pkg/version"
)

var versionFlags struct {
	format string
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including Git commit and build date.`,
	RunE:  printVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVar(&versionFlags.format, "format", "text", "output format: text, json, yaml")
}

func printVersion(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(versionFlags.format)
	if err != nil {
		return err
	}

	info := version.Get()
	if format != cli.FormatText {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), info)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "kae %s\n", info.Version)
	fmt.Fprintf(out, "Git Commit: %s\n", info.GitCommit)
	fmt.Fprintf(out, "Build Date: %s\n", info.BuildDate)
	fmt.Fprintf(out, "Go Version: %s\n", info.GoVersion)
	fmt.Fprintf(out, "OS/Arch: %s\n", info.Platform)
	return nil
}
