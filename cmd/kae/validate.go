package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kae-hq/kae/pkg/appspec"
	"kae-hq/kae/pkg/cli"
	"kae-hq/kae/pkg/config"
	"kae-hq/kae/pkg/history"
	"kae-hq/kae/pkg/history/recorder"
	"kae-hq/kae/pkg/source"
	"kae-hq/kae/pkg/source/git"
	"kae-hq/kae/pkg/telemetry/logging"
)

// stdinPath is the input name that reads a descriptor from stdin.
const stdinPath = "-"

var validateFlags struct {
	files      []string
	dir        string
	gitRepo    string
	gitBranch  string
	gitPath    string
	format     string
	normalized bool
	strict     bool
	record     bool
	progress   bool
}

var validateCmd = &cobra.Command{
	Use:   "validate [path...]",
	Short: "Validate application descriptors",
	Long: `Validate one or more application descriptors.

Descriptors are read from files (-f or positional arguments), every YAML and
JSON file under a directory (-d), stdin ("-") or a Git repository
(--git-repo). Every error found is reported with its field path and source
position; nothing stops at the first error.

Examples:
  # Validate a single descriptor
  kae validate -f deploy/app.yaml

  # Validate a directory and print the normalized descriptors
  kae validate -d deploy/ --output-normalized

  # Validate from stdin as JSON
  cat app.yaml | kae validate - --format json

  # Validate the descriptors of a branch
  kae validate --git-repo https://github.com/company/deploy.git --git-branch main --git-path apps/`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringSliceVarP(&validateFlags.files, "file", "f", nil, "descriptor file (repeatable, \"-\" for stdin)")
	validateCmd.Flags().StringVarP(&validateFlags.dir, "dir", "d", "", "directory of descriptors")
	validateCmd.Flags().StringVar(&validateFlags.gitRepo, "git-repo", "", "validate the descriptors of a Git repository")
	validateCmd.Flags().StringVar(&validateFlags.gitBranch, "git-branch", "", "branch to validate (uses config if not specified)")
	validateCmd.Flags().StringVar(&validateFlags.gitPath, "git-path", "", "descriptor directory within the repository")
	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format: text, json, yaml")
	validateCmd.Flags().BoolVar(&validateFlags.normalized, "output-normalized", false, "print the normalized descriptor of valid inputs")
	validateCmd.Flags().BoolVar(&validateFlags.strict, "strict", false, "report unknown fields")
	validateCmd.Flags().BoolVar(&validateFlags.record, "record", false, "record results in the history store")
	validateCmd.Flags().BoolVar(&validateFlags.progress, "progress", false, "show progress on stderr")
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(validateFlags.format)
	if err != nil {
		return err
	}

	a, err := newApp(func(cfg *config.Config) {
		if validateFlags.strict {
			cfg.Validation.StrictFields = true
		}
	})
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := cli.SetupSignalHandler(cmd.Context())
	defer cancel()

	engine := a.engine()

	var results []*appspec.Result
	if validateFlags.gitRepo != "" {
		ctx, results, err = validateGitRepository(ctx, a, engine)
	} else {
		results, err = validateInputs(ctx, a, engine, cmd, args)
	}
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	if validateFlags.record || a.cfg.History.Enabled {
		if err := recordResults(ctx, a, results); err != nil {
			return cli.NewCommandError("validate", err)
		}
	}

	report := cli.NewReport(results, validateFlags.normalized)
	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report); err != nil {
		return cli.NewCommandError("validate", err)
	}
	return report.Err()
}

// collectInputs expands -f, -d and positional arguments into descriptor
// paths. Directories contribute their descriptor files.
func collectInputs(a *app, args []string) ([]string, error) {
	var roots []string
	roots = append(roots, validateFlags.files...)
	roots = append(roots, args...)
	if validateFlags.dir != "" {
		roots = append(roots, validateFlags.dir)
	}
	if len(roots) == 0 {
		return nil, errors.New("no input: pass descriptor paths, -f, -d, --git-repo or \"-\" for stdin")
	}

	var inputs []string
	for _, root := range roots {
		if root == stdinPath {
			inputs = append(inputs, stdinPath)
			continue
		}
		files, err := source.ListDescriptors(root, a.cfg.Watch.Extensions)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no descriptors found in %s", root)
		}
		inputs = append(inputs, files...)
	}
	return inputs, nil
}

func validateInputs(ctx context.Context, a *app, engine *appspec.Engine, cmd *cobra.Command, args []string) ([]*appspec.Result, error) {
	inputs, err := collectInputs(a, args)
	if err != nil {
		return nil, err
	}

	var progress cli.ProgressReporter
	if validateFlags.progress {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr())
		progress.Start(int64(len(inputs)))
		defer progress.Finish()
	}

	results := make([]*appspec.Result, 0, len(inputs))
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var res *appspec.Result
		if input == stdinPath {
			data, err := readStdin(cmd.InOrStdin(), a.cfg.Validation.MaxFileSize)
			if err != nil {
				return nil, err
			}
			res = engine.ValidateBytes(ctx, data, "stdin", appspec.SourceStdin)
		} else {
			res = engine.ValidateFile(ctx, input)
		}
		results = append(results, res)

		if progress != nil {
			progress.Update(int64(i + 1))
		}
	}
	return results, nil
}

// readStdin reads at most one byte past maxSize so that the parser still
// reports oversized input.
func readStdin(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize > 0 {
		r = io.LimitReader(r, maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}

// validateGitRepository clones the repository and validates its
// descriptors. The returned context carries the validated commit.
func validateGitRepository(ctx context.Context, a *app, engine *appspec.Engine) (context.Context, []*appspec.Result, error) {
	gitCfg := a.cfg.Git
	gitCfg.Repository = validateFlags.gitRepo
	if validateFlags.gitBranch != "" {
		gitCfg.Branch = validateFlags.gitBranch
	}
	if validateFlags.gitPath != "" {
		gitCfg.Path = validateFlags.gitPath
	}

	repo, err := git.NewRepository(&gitCfg, a.telemetry.Metrics())
	if err != nil {
		return ctx, nil, err
	}
	if err := repo.Clone(ctx); err != nil {
		return ctx, nil, err
	}
	commit, err := repo.CurrentCommit()
	if err != nil {
		return ctx, nil, err
	}
	files, err := repo.ListDescriptors(a.cfg.Watch.Extensions)
	if err != nil {
		return ctx, nil, err
	}

	a.telemetry.Logger().Debug("validating repository",
		"repository", gitCfg.Repository,
		"branch", repo.Branch(),
		"commit", commit.Short(),
		"files", len(files),
	)

	ctx = logging.WithCommit(ctx, commit.SHA)
	results := make([]*appspec.Result, 0, len(files))
	for _, path := range files {
		results = append(results, validateCheckoutFile(ctx, engine, repo.LocalPath(), path))
	}
	return ctx, results, nil
}

// validateCheckoutFile validates a file of a Git checkout, naming it by its
// repository-relative path.
func validateCheckoutFile(ctx context.Context, engine *appspec.Engine, root, path string) *appspec.Result {
	name, err := filepath.Rel(root, path)
	if err != nil {
		name = path
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.ValidateFile(ctx, path)
	}
	return engine.ValidateBytes(ctx, data, filepath.ToSlash(name), appspec.SourceGit)
}

// recordResults writes one history record per result and waits for the
// writes to finish.
func recordResults(ctx context.Context, a *app, results []*appspec.Result) error {
	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	rec := recorder.NewRecorder(store, nil, a.telemetry.Metrics())
	var errs []error
	for _, res := range results {
		if _, err := rec.Record(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	if err := rec.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// openRecorder opens the history store and a recorder writing to it when
// history is enabled. The returned close function is never nil.
func openRecorder(a *app) (*recorder.Recorder, history.Storage, func(), error) {
	if !a.cfg.History.Enabled {
		return nil, nil, func() {}, nil
	}
	store, err := a.openHistory()
	if err != nil {
		return nil, nil, nil, err
	}
	rec := recorder.NewRecorder(store, nil, a.telemetry.Metrics())
	closeFn := func() {
		if err := rec.Close(); err != nil {
			a.telemetry.Logger().Warn("failed to flush history", "error", err)
		}
		if err := store.Close(); err != nil {
			a.telemetry.Logger().Warn("failed to close history store", "error", err)
		}
	}
	return rec, store, closeFn, nil
}
