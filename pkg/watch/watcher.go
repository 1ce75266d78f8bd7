package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"kae-hq/kae/pkg/config"
	"kae-hq/kae/pkg/source"
	"kae-hq/kae/pkg/telemetry/metrics"
)

// Config contains configuration for the file watcher.
type Config struct {
	// Path is the descriptor file or directory to watch.
	Path string

	// Debounce is the quiet period after the last event before the handler
	// runs. Default: 100ms
	Debounce time.Duration

	// Extensions lists the file extensions treated as descriptors.
	Extensions []string
}

// NewConfig builds a watcher config for path from the watch section of the
// tool configuration.
func NewConfig(path string, cfg config.WatchConfig) *Config {
	return &Config{
		Path:       path,
		Debounce:   cfg.Debounce,
		Extensions: cfg.Extensions,
	}
}

// Event is a change to one descriptor file.
type Event struct {
	Path    string
	Removed bool
}

// Handler receives the descriptor files that changed during one debounce
// window, sorted by path.
type Handler func(ctx context.Context, events []Event)

// Watcher watches descriptor files and reports debounced batches of
// changes. Watching a directory includes its subdirectories, including ones
// created later.
type Watcher struct {
	watcher  *fsnotify.Watcher
	config   *Config
	logger   *slog.Logger
	metrics  *metrics.Collector
	debounce *Debouncer

	// single is set when Path is a file; its parent directory is watched
	// so that editors replacing the file by rename are seen.
	single string

	mu      sync.Mutex
	pending map[string]Event
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a watcher. logger and collector may be nil.
func New(cfg *Config, logger *slog.Logger, collector *metrics.Collector) (*Watcher, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, fmt.Errorf("watch path is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = config.DefaultWatchDebounce
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = config.DefaultWatchExtensions
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  fsw,
		config:   cfg,
		logger:   logger.With("component", "watch"),
		metrics:  collector,
		debounce: NewDebouncer(cfg.Debounce),
		pending:  make(map[string]Event),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks, delivering change batches to handler until ctx is
// cancelled or Stop is called.
func (w *Watcher) Watch(ctx context.Context, handler Handler) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	if err := w.addPath(w.config.Path); err != nil {
		return fmt.Errorf("failed to watch path: %w", err)
	}

	w.logger.Info("file watcher started",
		"path", w.config.Path,
		"debounce_ms", w.config.Debounce.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("file watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("file watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(ctx, event, handler)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event, handler Handler) {
	// New subdirectories are watched as they appear.
	if w.single == "" && event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !source.IsHidden(event.Name) {
			if err := w.addDirectory(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	if !w.shouldProcess(event) {
		return
	}

	kind := eventKind(event.Op)
	if w.metrics != nil {
		w.metrics.RecordWatchEvent(kind)
	}
	w.logger.Debug("file event detected", "path", event.Name, "op", event.Op.String())

	w.mu.Lock()
	w.pending[event.Name] = Event{
		Path:    event.Name,
		Removed: event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename),
	}
	w.mu.Unlock()

	w.debounce.Trigger(func() {
		if events := w.drain(); len(events) > 0 {
			handler(ctx, events)
		}
	})
}

// drain returns and clears the pending events. A file removed and then
// recreated within one window (an atomic save) is reported as changed.
func (w *Watcher) drain() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	events := make([]Event, 0, len(w.pending))
	for path, ev := range w.pending {
		if ev.Removed {
			if _, err := os.Stat(path); err == nil {
				ev.Removed = false
			}
		}
		events = append(events, ev)
	}
	w.pending = make(map[string]Event)

	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	return events
}

// Stop stops the watcher and waits for Watch to return.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}

	w.debounce.Stop()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *Watcher) addPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return w.addDirectory(path)
	}

	w.single = filepath.Clean(path)
	return w.watcher.Add(filepath.Dir(w.single))
}

// addDirectory watches dir and its non-hidden subdirectories.
func (w *Watcher) addDirectory(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && source.IsHidden(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", path, err)
		}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
}

func (w *Watcher) shouldProcess(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if w.single != "" {
		return filepath.Clean(event.Name) == w.single
	}
	return source.IsDescriptor(event.Name, w.config.Extensions)
}

func eventKind(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return "other"
	}
}

// Debouncer collapses bursts of triggers into one callback run after a
// quiet period.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopped  bool
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger (re)starts the quiet period; callback replaces any pending one.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	cb := d.callback
	d.callback = nil
	stopped := d.stopped
	d.mu.Unlock()

	if cb != nil && !stopped {
		cb()
	}
}

// Stop cancels any pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
