package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"kae-hq/kae/pkg/config"
	"kae-hq/kae/pkg/telemetry/metrics"
)

var testExtensions = []string{".yaml", ".yml", ".json"}

// createTestRepo initialises a repository at dir with one committed
// descriptor under deploy/.
func createTestRepo(t *testing.T, dir string) *gogit.Repository {
	t.Helper()

	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	commitFiles(t, repo, dir, "initial commit", map[string]string{
		"deploy/hello.yaml": "appname: hello\ntype: web\n",
		"README.md":         "descriptors\n",
	})
	return repo
}

// commitFiles writes files (relative to dir) and commits them.
func commitFiles(t *testing.T, repo *gogit.Repository, dir, message string, files map[string]string) string {
	t.Helper()

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		if _, err := worktree.Add(name); err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
	}

	hash, err := worktree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return hash.String()
}

func testConfig(t *testing.T, sourceDir string) *config.GitConfig {
	t.Helper()
	return &config.GitConfig{
		Repository: sourceDir,
		Branch:     "master", // go-git init creates "master"
		Path:       "deploy",
		Auth:       config.GitAuthConfig{Type: "none"},
		Poll:       config.GitPollConfig{Interval: time.Hour, Timeout: 10 * time.Second},
		Clone:      config.GitCloneConfig{LocalPath: filepath.Join(t.TempDir(), "checkout")},
	}
}

func cloneTestRepo(t *testing.T, cfg *config.GitConfig, collector *metrics.Collector) *Repository {
	t.Helper()
	repo, err := NewRepository(cfg, collector)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if err := repo.Clone(context.Background()); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	return repo
}

func TestNewRepository(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.GitConfig
		wantErr bool
	}{
		{name: "nil config", cfg: nil, wantErr: true},
		{name: "empty repository URL", cfg: &config.GitConfig{Branch: "main"}, wantErr: true},
		{name: "empty branch", cfg: &config.GitConfig{Repository: "https://github.com/test/deploy.git"}, wantErr: true},
		{
			name: "token without token",
			cfg: &config.GitConfig{
				Repository: "https://github.com/test/deploy.git",
				Branch:     "main",
				Auth:       config.GitAuthConfig{Type: "token"},
			},
			wantErr: true,
		},
		{
			name: "valid config",
			cfg: &config.GitConfig{
				Repository: "https://github.com/test/deploy.git",
				Branch:     "main",
				Auth:       config.GitAuthConfig{Type: "none"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := NewRepository(tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRepository() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && repo.LocalPath() == "" {
				t.Error("expected a default local path")
			}
		})
	}
}

func TestRepository_Clone(t *testing.T) {
	sourceDir := t.TempDir()
	createTestRepo(t, sourceDir)

	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "kae", Subsystem: "validator"}, nil)
	cfg := testConfig(t, sourceDir)
	repo := cloneTestRepo(t, cfg, collector)

	if _, err := os.Stat(filepath.Join(repo.DescriptorPath(), "hello.yaml")); err != nil {
		t.Errorf("descriptor missing from checkout: %v", err)
	}

	// A second Clone reopens the existing checkout.
	if err := repo.Clone(context.Background()); err != nil {
		t.Errorf("re-Clone() error = %v", err)
	}

	n, err := testutil.GatherAndCount(collector.Registry(), "kae_source_git_syncs_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if n == 0 {
		t.Error("expected source sync metrics to be recorded")
	}
}

func TestRepository_CloneNonexistent(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing"))
	repo, err := NewRepository(cfg, nil)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if err := repo.Clone(context.Background()); err == nil {
		t.Error("expected error cloning a nonexistent repository")
	}
}

func TestRepository_CloneWithCleanOnStart(t *testing.T) {
	sourceDir := t.TempDir()
	createTestRepo(t, sourceDir)

	cfg := testConfig(t, sourceDir)
	cfg.Clone.CleanOnStart = true
	repo := cloneTestRepo(t, cfg, nil)

	stale := filepath.Join(repo.LocalPath(), "stale.txt")
	if err := os.WriteFile(stale, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := repo.Clone(context.Background()); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("expected CleanOnStart to remove the previous checkout")
	}
}

func TestRepository_CurrentCommit(t *testing.T) {
	sourceDir := t.TempDir()
	source := createTestRepo(t, sourceDir)
	head, _ := source.Head()

	repo := cloneTestRepo(t, testConfig(t, sourceDir), nil)

	commit, err := repo.CurrentCommit()
	if err != nil {
		t.Fatalf("CurrentCommit() error = %v", err)
	}
	if commit.SHA != head.Hash().String() {
		t.Errorf("SHA = %s, want %s", commit.SHA, head.Hash())
	}
	if commit.Author != "Test User" || commit.Branch != "master" {
		t.Errorf("unexpected commit info %+v", commit)
	}
	if len(commit.Short()) != 8 {
		t.Errorf("Short() = %q", commit.Short())
	}
}

func TestRepository_ListDescriptors(t *testing.T) {
	sourceDir := t.TempDir()
	source := createTestRepo(t, sourceDir)
	commitFiles(t, source, sourceDir, "more descriptors", map[string]string{
		"deploy/team/api.json": `{"appname": "api"}`,
		"deploy/.hidden.yaml":  "appname: hidden\n",
		"deploy/notes.txt":     "not a descriptor\n",
		"elsewhere/other.yaml": "appname: other\n",
	})

	repo := cloneTestRepo(t, testConfig(t, sourceDir), nil)

	files, err := repo.ListDescriptors(testExtensions)
	if err != nil {
		t.Fatalf("ListDescriptors() error = %v", err)
	}
	want := []string{
		filepath.Join(repo.DescriptorPath(), "hello.yaml"),
		filepath.Join(repo.DescriptorPath(), "team", "api.json"),
	}
	if len(files) != len(want) {
		t.Fatalf("ListDescriptors() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestRepository_PullAndChangedFiles(t *testing.T) {
	sourceDir := t.TempDir()
	source := createTestRepo(t, sourceDir)
	repo := cloneTestRepo(t, testConfig(t, sourceDir), nil)

	result, err := repo.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if result.HadChanges {
		t.Error("expected no changes on an up-to-date checkout")
	}

	second := commitFiles(t, source, sourceDir, "update", map[string]string{
		"deploy/hello.yaml": "appname: hello\ntype: worker\n",
		"deploy/new.yaml":   "appname: new\n",
	})

	result, err = repo.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if !result.HadChanges || result.ToSHA != second {
		t.Fatalf("unexpected pull result %+v", result)
	}
	if len(result.ChangedFiles) != 2 {
		t.Errorf("ChangedFiles = %v, want 2 entries", result.ChangedFiles)
	}

	files, err := repo.ChangedFiles(result.FromSHA, result.ToSHA)
	if err != nil {
		t.Fatalf("ChangedFiles() error = %v", err)
	}
	if len(files) != 2 {
		t.Errorf("ChangedFiles() = %v", files)
	}
}

func TestRepository_NotCloned(t *testing.T) {
	repo, err := NewRepository(&config.GitConfig{
		Repository: "https://github.com/test/deploy.git",
		Branch:     "main",
	}, nil)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	if _, err := repo.Pull(context.Background()); !errors.Is(err, ErrNotCloned) {
		t.Errorf("Pull() error = %v, want ErrNotCloned", err)
	}
	if _, err := repo.CurrentCommit(); !errors.Is(err, ErrNotCloned) {
		t.Errorf("CurrentCommit() error = %v, want ErrNotCloned", err)
	}
	if _, err := repo.ListDescriptors(testExtensions); !errors.Is(err, ErrNotCloned) {
		t.Errorf("ListDescriptors() error = %v, want ErrNotCloned", err)
	}
}
