package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kae-hq/kae/pkg/cli"
	"kae-hq/kae/pkg/config"
	"kae-hq/kae/pkg/history"
	"kae-hq/kae/pkg/history/retention"
)

var historyFlags struct {
	id     string
	app    string
	kind   string
	valid  string
	since  string
	until  string
	limit  int
	offset int
	order  string
	format string

	days       int
	maxRecords int64
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the validation history",
	Long: `Query and prune the validation history store.

Each validation recorded by "kae validate --record", "kae watch" or
"kae serve" keeps the descriptor's appname, source, SHA-256 hash, outcome
and errors. Descriptors themselves are not stored.

Subcommands:
  query   - List records with filters
  prune   - Apply the retention policy now`,
}

var historyQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query history records",
	Long: `Query history records, newest first.

Time filters accept RFC3339 timestamps or a duration relative to now.

Examples:
  # Last 20 failed validations of an app
  kae history query --app hello --valid=false --limit 20

  # Everything recorded from HTTP in the last day, as JSON
  kae history query --kind http --since 24h --format json

  # One record with its errors
  kae history query --id 0f8fad5b-d9cb-469f-a165-70867728950e`,
	RunE: queryHistory,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records outside the retention policy",
	Long: `Delete records older than history.retention.days, then the oldest
records beyond history.retention.max_records.

Examples:
  # Apply the configured policy
  kae history prune

  # Keep one week
  kae history prune --days 7`,
	RunE: pruneHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyQueryCmd, historyPruneCmd)

	historyQueryCmd.Flags().StringVar(&historyFlags.id, "id", "", "show a single record")
	historyQueryCmd.Flags().StringVar(&historyFlags.app, "app", "", "filter by appname")
	historyQueryCmd.Flags().StringVar(&historyFlags.kind, "kind", "", "filter by source kind (file, stdin, http, git)")
	historyQueryCmd.Flags().StringVar(&historyFlags.valid, "valid", "", "filter by outcome (true, false)")
	historyQueryCmd.Flags().StringVar(&historyFlags.since, "since", "", "only records at or after (RFC3339 or duration)")
	historyQueryCmd.Flags().StringVar(&historyFlags.until, "until", "", "only records at or before (RFC3339 or duration)")
	historyQueryCmd.Flags().IntVar(&historyFlags.limit, "limit", history.DefaultQueryLimit, "max results")
	historyQueryCmd.Flags().IntVar(&historyFlags.offset, "offset", 0, "pagination offset")
	historyQueryCmd.Flags().StringVar(&historyFlags.order, "order", history.SortDesc, "sort order: desc, asc")
	historyQueryCmd.Flags().StringVar(&historyFlags.format, "format", "text", "output format: text, json, yaml")

	historyPruneCmd.Flags().IntVar(&historyFlags.days, "days", -1, "override retention days (0 keeps records forever)")
	historyPruneCmd.Flags().Int64Var(&historyFlags.maxRecords, "max-records", -1, "override the record cap (0 means unlimited)")
}

func queryHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(historyFlags.format)
	if err != nil {
		return err
	}
	query, err := buildHistoryQuery(time.Now())
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.openHistory()
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	records, err := store.Query(ctx, query)
	if err != nil {
		return cli.NewCommandError("history", fmt.Errorf("query failed: %w", err))
	}

	formatter := cli.NewFormatter(format)
	if historyFlags.id != "" {
		if len(records) == 0 {
			return cli.NewCommandError("history", fmt.Errorf("record %s not found", historyFlags.id))
		}
		return formatter.FormatTo(cmd.OutOrStdout(), records[0])
	}
	return formatter.FormatTo(cmd.OutOrStdout(), records)
}

// buildHistoryQuery turns the query flags into a history query. Relative
// times are resolved against now.
func buildHistoryQuery(now time.Time) (*history.Query, error) {
	if historyFlags.id != "" {
		return &history.Query{IDs: []string{historyFlags.id}, Limit: 1}, nil
	}

	query := &history.Query{
		AppName: historyFlags.app,
		Kind:    historyFlags.kind,
		Limit:   historyFlags.limit,
		Offset:  historyFlags.offset,
	}

	switch order := strings.ToLower(historyFlags.order); order {
	case history.SortAsc, history.SortDesc:
		query.SortOrder = order
	default:
		return nil, fmt.Errorf("invalid order %q (want desc or asc)", historyFlags.order)
	}

	if historyFlags.valid != "" {
		valid, err := strconv.ParseBool(historyFlags.valid)
		if err != nil {
			return nil, fmt.Errorf("invalid --valid value %q", historyFlags.valid)
		}
		query.Valid = history.Bool(valid)
	}

	var err error
	if query.StartTime, err = parseTimeFlag("since", historyFlags.since, now); err != nil {
		return nil, err
	}
	if query.EndTime, err = parseTimeFlag("until", historyFlags.until, now); err != nil {
		return nil, err
	}
	if query.StartTime != nil && query.EndTime != nil && query.EndTime.Before(*query.StartTime) {
		return nil, fmt.Errorf("--until is before --since")
	}
	return query, nil
}

// parseTimeFlag accepts an RFC3339 timestamp or a duration before now.
func parseTimeFlag(name, value string, now time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return nil, fmt.Errorf("invalid --%s value %q (want RFC3339 or a duration like 24h)", name, value)
	}
	t := now.Add(-d)
	return &t, nil
}

func pruneHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(func(cfg *config.Config) {
		if historyFlags.days >= 0 {
			cfg.History.Retention.Days = historyFlags.days
		}
		if historyFlags.maxRecords >= 0 {
			cfg.History.Retention.MaxRecords = historyFlags.maxRecords
		}
	})
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.openHistory()
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	defer store.Close()

	deleted, err := prune(cmd.Context(), store, a.cfg.History.Retention, a)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d records\n", deleted)
	return nil
}

func prune(ctx context.Context, store history.Storage, cfg config.RetentionConfig, a *app) (int64, error) {
	if cfg.Days == 0 && cfg.MaxRecords == 0 {
		a.telemetry.Logger().Info("retention policy keeps every record, nothing to prune")
		return 0, nil
	}
	return retention.NewPruner(store, cfg, a.telemetry.Metrics()).Prune(ctx)
}
