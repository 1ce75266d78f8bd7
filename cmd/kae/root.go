package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kae-hq/kae/pkg/appspec"
	"kae-hq/kae/pkg/cli"
	"kae-hq/kae/pkg/config"
	"kae-hq/kae/pkg/history"
	"kae-hq/kae/pkg/history/storage"
	"kae-hq/kae/pkg/telemetry"
	"kae-hq/kae/pkg/version"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "kae",
	Short: "kae - application deployment descriptor validator",
	Long: `kae validates application deployment descriptors before they reach a cluster.

It checks every field of a descriptor, resolves service ports against the
container ports they target, fills defaults and reports every error found
with its file position. Descriptors can be validated from files, stdin, a
Git repository or over HTTP, and each validation can be recorded in a
history store.

Exit status is 0 when every descriptor is valid, 1 when at least one is
invalid and 2 when the command itself fails.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the status matching its
// outcome.
func Execute() {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, cli.ErrInvalidDescriptors) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.ExitCode(err))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and KAE_* environment when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// app holds what every subcommand builds from the configuration.
type app struct {
	cfg       *config.Config
	telemetry *telemetry.Telemetry
}

// newApp loads the global configuration, applies overrides in order and
// builds the telemetry stack.
func newApp(overrides ...func(*config.Config)) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		field := cfgFile
		if field == "" {
			field = "environment"
		}
		return nil, cli.NewConfigError(field, err.Error())
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	for _, override := range overrides {
		override(cfg)
	}

	tel, err := telemetry.New(&cfg.Telemetry, os.Stderr)
	if err != nil {
		return nil, cli.NewConfigError("telemetry", err.Error())
	}
	return &app{cfg: cfg, telemetry: tel}, nil
}

func (a *app) engine() *appspec.Engine {
	return a.engineFor(a.cfg.Validation)
}

// engineFor builds an engine from a validation section, reporting to the
// app's telemetry.
func (a *app) engineFor(v config.ValidationConfig) *appspec.Engine {
	return appspec.NewEngine(&appspec.EngineConfig{
		Options:     appspec.OptionsFromConfig(v),
		MaxFileSize: v.MaxFileSize,
		Logger:      a.telemetry.Logger(),
		Metrics:     a.telemetry.Metrics(),
		Tracer:      a.telemetry.Tracer(),
	})
}

func (a *app) openHistory() (history.Storage, error) {
	store, err := storage.Open(&a.cfg.History)
	if err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return store, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.telemetry.Logger().Warn("telemetry shutdown failed", "error", err)
	}
}
