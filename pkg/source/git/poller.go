package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"kae-hq/kae/pkg/source"
	"kae-hq/kae/pkg/telemetry/logging"
	"kae-hq/kae/pkg/telemetry/tracing"
	"kae-hq/kae/pkg/watch"
)

// Poller pulls a repository on an interval and reports the descriptor
// files changed by each new commit. The handler's context carries the new
// commit SHA (see logging.GetCommit).
type Poller struct {
	repo       *Repository
	interval   time.Duration
	extensions []string
	logger     *slog.Logger
	tracer     *tracing.Tracer

	mu      sync.RWMutex
	running bool
	lastSHA string
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// PollerConfig configures a Poller.
type PollerConfig struct {
	Interval   time.Duration
	Extensions []string
	Logger     *slog.Logger
	Tracer     *tracing.Tracer
}

// NewPoller creates a poller for a cloned repository.
func NewPoller(repo *Repository, cfg PollerConfig) *Poller {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracing.Noop()
	}
	return &Poller{
		repo:       repo,
		interval:   cfg.Interval,
		extensions: cfg.Extensions,
		logger:     cfg.Logger.With("component", "git.poller"),
		tracer:     cfg.Tracer,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Run blocks, polling until ctx is cancelled or Stop is called.
func (p *Poller) Run(ctx context.Context, handler watch.Handler) error {
	if p.interval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	commit, err := p.repo.CurrentCommit()
	if err != nil {
		return fmt.Errorf("failed to get initial commit: %w", err)
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	p.running = true
	p.lastSHA = commit.SHA
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		close(p.doneCh)
	}()

	p.logger.Info("git poller started",
		"repository", p.repo.config.Repository,
		"branch", p.repo.Branch(),
		"poll_interval", p.interval,
		"commit", commit.Short(),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("git poller stopped (context cancelled)")
			return nil
		case <-p.stopCh:
			p.logger.Info("git poller stopped")
			return nil
		case <-ticker.C:
			if err := p.Check(ctx, handler); err != nil {
				p.logger.Error("error checking for changes", "error", err)
			}
		}
	}
}

// Check pulls once and calls handler if descriptor files changed.
func (p *Poller) Check(ctx context.Context, handler watch.Handler) error {
	ctx, span := p.tracer.Start(ctx, "git.poll")
	defer span.End()

	result, err := p.repo.Pull(ctx)
	if err != nil {
		tracing.SetError(span, err)
		tracing.SetStatus(span, err)
		return err
	}
	tracing.SetGitAttributes(span, p.repo.Branch(), result.ToSHA)

	p.mu.Lock()
	p.lastSHA = result.ToSHA
	p.mu.Unlock()

	if !result.HadChanges {
		return nil
	}

	events := p.descriptorEvents(result.ChangedFiles)
	span.SetAttributes(attribute.Int(tracing.AttrFilesCount, len(events)))

	p.logger.Info("detected changes",
		"from_sha", shortSHA(result.FromSHA),
		"to_sha", shortSHA(result.ToSHA),
		"changed_files", len(result.ChangedFiles),
		"descriptors", len(events),
	)
	if len(events) == 0 {
		return nil
	}

	handler(logging.WithCommit(ctx, result.ToSHA), events)
	return nil
}

// descriptorEvents keeps changed files that are descriptors under the
// configured path, resolved to absolute checkout paths.
func (p *Poller) descriptorEvents(changed []string) []watch.Event {
	prefix := filepath.Clean(p.repo.config.Path)
	var events []watch.Event
	for _, name := range changed {
		rel := filepath.FromSlash(name)
		if prefix != "." && rel != prefix && !strings.HasPrefix(rel, prefix+string(filepath.Separator)) {
			continue
		}
		if !source.IsDescriptor(rel, p.extensions) {
			continue
		}

		path := filepath.Join(p.repo.LocalPath(), rel)
		_, statErr := os.Stat(path)
		events = append(events, watch.Event{Path: path, Removed: os.IsNotExist(statErr)})
	}
	return events
}

// Stop stops a running poller and waits for Run to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()

	if running {
		close(p.stopCh)
		<-p.doneCh
	}
}

// LastCommit returns the SHA of the most recently pulled commit.
func (p *Poller) LastCommit() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSHA
}
