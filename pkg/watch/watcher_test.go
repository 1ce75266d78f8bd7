package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"kae-hq/kae/pkg/config"
)

func startWatcher(t *testing.T, path string) <-chan []Event {
	t.Helper()

	w, err := New(&Config{Path: path, Debounce: 50 * time.Millisecond}, nil, nil)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	batches := make(chan []Event, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(_ context.Context, events []Event) {
			batches <- events
		})
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch() returned %v", err)
		}
		_ = w.Stop()
	})

	// Give the watcher time to register its directories.
	time.Sleep(100 * time.Millisecond)
	return batches
}

func waitBatch(t *testing.T, batches <-chan []Event) []Event {
	t.Helper()
	select {
	case events := <-batches:
		return events
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change batch")
		return nil
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestWatcher_Directory(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir)

	app := filepath.Join(dir, "app.yaml")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, app, "appname: hello\n")
	writeFile(t, app, "appname: hello\ntype: web\n")

	events := waitBatch(t, batches)
	if len(events) != 1 {
		t.Fatalf("expected one debounced event, got %v", events)
	}
	if events[0].Path != app || events[0].Removed {
		t.Errorf("unexpected event %+v", events[0])
	}
}

func TestWatcher_Removal(t *testing.T) {
	dir := t.TempDir()
	app := filepath.Join(dir, "app.json")
	writeFile(t, app, `{"appname": "hello"}`)
	batches := startWatcher(t, dir)

	if err := os.Remove(app); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}

	events := waitBatch(t, batches)
	if len(events) != 1 || !events[0].Removed {
		t.Errorf("expected removal event, got %v", events)
	}
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	dir := t.TempDir()
	batches := startWatcher(t, dir)

	sub := filepath.Join(dir, "team")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	app := filepath.Join(sub, "api.yml")
	writeFile(t, app, "appname: api\n")

	events := waitBatch(t, batches)
	if len(events) != 1 || events[0].Path != app {
		t.Errorf("expected event for %s, got %v", app, events)
	}
}

func TestWatcher_SingleFile(t *testing.T) {
	dir := t.TempDir()
	app := filepath.Join(dir, "app.yaml")
	writeFile(t, app, "appname: hello\n")
	batches := startWatcher(t, app)

	writeFile(t, filepath.Join(dir, "other.yaml"), "appname: other\n")
	writeFile(t, app, "appname: hello\ntype: web\n")

	events := waitBatch(t, batches)
	if len(events) != 1 || events[0].Path != app {
		t.Errorf("expected only the watched file, got %v", events)
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := New(&Config{}, nil, nil); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("deploy", config.WatchConfig{Debounce: time.Second, Extensions: []string{".yaml"}})
	if cfg.Path != "deploy" || cfg.Debounce != time.Second || len(cfg.Extensions) != 1 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var calls atomic.Int32

	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}

	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("trigger after Stop ran callback, calls = %d", n)
	}
}
