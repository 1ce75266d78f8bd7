package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"kae-hq/kae/pkg/appspec"
	"kae-hq/kae/pkg/cli"
	"kae-hq/kae/pkg/history"
	"kae-hq/kae/pkg/history/recorder"
	"kae-hq/kae/pkg/history/storage"
	"kae-hq/kae/pkg/telemetry/logging"
	"kae-hq/kae/pkg/watch"
)

func TestWatchSession_Handle(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "a.yaml", validDescriptor)
	invalid := writeFile(t, dir, "b.yaml", invalidDescriptor)

	store := storage.NewMemoryStorage()
	rec := recorder.NewRecorder(store, nil, nil)
	out := &bytes.Buffer{}
	engine := appspec.NewEngine(nil)
	session := &watchSession{
		engine:   engine,
		recorder: rec,
		logger:   logging.Discard(),
		out:      out,
		format:   cli.NewFormatter(cli.FormatText),
		validate: func(ctx context.Context, path string) *appspec.Result {
			return engine.ValidateFile(ctx, path)
		},
	}

	ctx := logging.WithCommit(context.Background(), "abc123")
	session.handle(ctx, []watch.Event{
		{Path: valid},
		{Path: invalid},
		{Path: dir + "/gone.yaml", Removed: true},
	})
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{valid + ": ok", invalid + ": invalid (1 error)", "2 files, 1 valid, 1 invalid"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "gone.yaml") {
		t.Error("removed files should not be reported")
	}

	records, err := store.Query(context.Background(), &history.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for _, r := range records {
		if r.Commit != "abc123" {
			t.Errorf("record %s commit = %q, want abc123", r.Source, r.Commit)
		}
	}

	// A batch of removals prints nothing.
	out.Reset()
	session.handle(ctx, []watch.Event{{Path: valid, Removed: true}})
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRunWatch_Args(t *testing.T) {
	setupTest(t, "")
	t.Cleanup(func() { watchFlags.git = false })

	cmd, _ := newTestCommand("")
	if err := runWatch(cmd, nil); err == nil {
		t.Error("expected error without path or --git")
	}

	watchFlags.git = true
	if err := runWatch(cmd, []string{"deploy/"}); err == nil {
		t.Error("expected error with both path and --git")
	}

	// --git without a configured repository fails before watching.
	if err := runWatch(cmd, nil); err == nil || cli.ExitCode(err) != cli.ExitFailure {
		t.Errorf("runWatch(--git) error = %v", err)
	}
}

func TestRunWatch_Path(t *testing.T) {
	dir := setupTest(t, "watch:\n  debounce: 20ms\n")
	writeFile(t, dir, "apps/a.yaml", validDescriptor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd, out := newTestCommand("")
	cmd.SetOut(&syncBuffer{buf: out})
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() { done <- runWatch(cmd, []string{dir + "/apps"}) }()

	time.Sleep(200 * time.Millisecond)
	writeFile(t, dir, "apps/b.yaml", invalidDescriptor)
	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runWatch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runWatch did not stop after cancellation")
	}

	got := out.String()
	if !strings.Contains(got, "a.yaml: ok") {
		t.Errorf("initial validation missing:\n%s", got)
	}
	if !strings.Contains(got, "b.yaml: invalid") {
		t.Errorf("change was not validated:\n%s", got)
	}
}
