package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kae-hq/kae/pkg/cli"
	"kae-hq/kae/pkg/config"
	"kae-hq/kae/pkg/history/retention"
	"kae-hq/kae/pkg/server"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP validation service",
	Long: `Start the HTTP validation service.

POST a descriptor to /v1/validate to validate it. When history is enabled,
every validation is recorded, /v1/history serves the records and old
records are pruned on the history.retention.prune_schedule cron schedule.
Health, readiness and Prometheus metrics endpoints are served alongside.

On SIGHUP the configuration file is read again and the validation section
takes effect for new requests. Other sections apply on restart.

Examples:
  # Start with default config
  kae serve

  # Start with a config file and override the listen address
  kae serve --config /etc/kae/kae.yaml --listen 0.0.0.0:8080

  # Validate the configuration without starting the server
  kae serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(func(cfg *config.Config) {
		if serveFlags.listenAddress != "" {
			cfg.Server.ListenAddress = serveFlags.listenAddress
		}
		if serveFlags.logLevel != "" {
			cfg.Telemetry.Logging.Level = serveFlags.logLevel
		}
	})
	if err != nil {
		return err
	}
	defer a.close()

	if serveFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	logger := a.telemetry.Logger()
	ctx, cancel := cli.SetupSignalHandler(cmd.Context())
	defer cancel()

	rec, store, closeHistory, err := openRecorder(a)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer closeHistory()

	deps := server.Deps{
		Engine:    a.engine(),
		Telemetry: a.telemetry,
	}
	if store != nil {
		deps.History = store
		deps.Recorder = rec

		pruner := retention.NewPruner(store, a.cfg.History.Retention, a.telemetry.Metrics())
		if err := pruner.Start(ctx); err != nil {
			logger.Warn("failed to start retention scheduler", "error", err)
		} else {
			defer pruner.Stop()
			if next := pruner.NextPruning(); next != nil {
				logger.Debug("history retention scheduler started", "next_pruning", next)
			}
		}
	}

	srv := server.NewServer(a.cfg, deps)
	reloadOnHangup(ctx, a, srv)
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	return nil
}

// reloadOnHangup reloads the validation settings on every SIGHUP until ctx
// is done.
func reloadOnHangup(ctx context.Context, a *app, srv *server.Server) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := reloadValidation(a, srv); err != nil {
					a.telemetry.Logger().Error("configuration reload failed, keeping current settings", "error", err)
				}
			}
		}
	}()
}

// reloadValidation re-reads the configuration and swaps the server's engine
// for one built from the new validation section.
func reloadValidation(a *app, srv *server.Server) error {
	if err := config.ReloadConfig(cfgFile); err != nil {
		return err
	}
	cfg := config.GetConfig()
	srv.SetEngine(a.engineFor(cfg.Validation))

	a.telemetry.Logger().Info("validation settings reloaded",
		"strict_fields", cfg.Validation.StrictFields,
		"app_types", cfg.Validation.AppTypes,
	)
	return nil
}
