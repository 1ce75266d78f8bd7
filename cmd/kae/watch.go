package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"kae-hq/kae/pkg/appspec"
	"kae-hq/kae/pkg/cli"
	"kae-hq/kae/pkg/history/recorder"
	"kae-hq/kae/pkg/source"
	"kae-hq/kae/pkg/source/git"
	"kae-hq/kae/pkg/telemetry/logging"
	"kae-hq/kae/pkg/watch"
)

var watchFlags struct {
	git    bool
	format string
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-validate descriptors when they change",
	Long: `Validate descriptors, then re-validate each one whenever it changes.

With a path, the file or directory is watched on disk; changes are debounced
(watch.debounce) so that an editor save triggers a single validation. With
--git, the repository configured in the git section is cloned and polled
(git.poll.interval); the descriptors changed by each new commit are
validated and recorded with that commit.

Examples:
  # Watch a directory
  kae watch deploy/

  # Watch a Git repository
  kae watch --git --config kae.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchFlags.git, "git", false, "poll the configured Git repository instead of a local path")
	watchCmd.Flags().StringVar(&watchFlags.format, "format", "text", "output format: text, json, yaml")
}

// watchSession validates the descriptors reported by a watcher or poller
// and prints one report per batch.
type watchSession struct {
	engine   *appspec.Engine
	recorder *recorder.Recorder
	logger   *logging.Logger
	out      io.Writer
	format   cli.Formatter

	// validate turns one changed path into a result.
	validate func(ctx context.Context, path string) *appspec.Result

	mu sync.Mutex
}

func (s *watchSession) handle(ctx context.Context, events []watch.Event) {
	var results []*appspec.Result
	for _, ev := range events {
		if ev.Removed {
			s.logger.InfoContext(ctx, "descriptor removed", "path", ev.Path)
			continue
		}
		res := s.validate(ctx, ev.Path)
		results = append(results, res)

		if s.recorder != nil {
			if _, err := s.recorder.Record(ctx, res); err != nil {
				s.logger.WarnContext(ctx, "failed to record validation", "source", res.Source, "error", err)
			}
		}
	}
	if len(results) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.format.FormatTo(s.out, cli.NewReport(results, false)); err != nil {
		s.logger.ErrorContext(ctx, "failed to write report", "error", err)
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(watchFlags.format)
	if err != nil {
		return err
	}
	if watchFlags.git == (len(args) == 1) {
		return errors.New("pass either a path or --git")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	rec, _, closeHistory, err := openRecorder(a)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer closeHistory()

	ctx, cancel := cli.SetupSignalHandler(cmd.Context())
	defer cancel()

	session := &watchSession{
		engine:   a.engine(),
		recorder: rec,
		logger:   a.telemetry.Logger(),
		out:      cmd.OutOrStdout(),
		format:   cli.NewFormatter(format),
	}

	if watchFlags.git {
		err = watchRepository(ctx, a, session)
	} else {
		err = watchPath(ctx, a, session, args[0])
	}
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	return nil
}

func watchPath(ctx context.Context, a *app, session *watchSession, path string) error {
	session.validate = func(ctx context.Context, p string) *appspec.Result {
		return session.engine.ValidateFile(ctx, p)
	}

	files, err := source.ListDescriptors(path, a.cfg.Watch.Extensions)
	if err != nil {
		return err
	}
	session.handle(ctx, pathEvents(files))

	w, err := watch.New(watch.NewConfig(path, a.cfg.Watch), a.telemetry.Logger().Slog(), a.telemetry.Metrics())
	if err != nil {
		return err
	}
	defer w.Stop()

	return w.Watch(ctx, session.handle)
}

func watchRepository(ctx context.Context, a *app, session *watchSession) error {
	if a.cfg.Git.Repository == "" {
		return fmt.Errorf("git.repository is not configured")
	}

	repo, err := git.NewRepository(&a.cfg.Git, a.telemetry.Metrics())
	if err != nil {
		return err
	}
	if err := repo.Clone(ctx); err != nil {
		return err
	}
	session.validate = func(ctx context.Context, p string) *appspec.Result {
		return validateCheckoutFile(ctx, session.engine, repo.LocalPath(), p)
	}

	commit, err := repo.CurrentCommit()
	if err != nil {
		return err
	}
	files, err := repo.ListDescriptors(a.cfg.Watch.Extensions)
	if err != nil {
		return err
	}
	session.handle(logging.WithCommit(ctx, commit.SHA), pathEvents(files))

	poller := git.NewPoller(repo, git.PollerConfig{
		Interval:   a.cfg.Git.Poll.Interval,
		Extensions: a.cfg.Watch.Extensions,
		Logger:     a.telemetry.Logger().Slog(),
		Tracer:     a.telemetry.Tracer(),
	})
	return poller.Run(ctx, session.handle)
}

func pathEvents(paths []string) []watch.Event {
	events := make([]watch.Event, len(paths))
	for i, p := range paths {
		events[i] = watch.Event{Path: p}
	}
	return events
}
