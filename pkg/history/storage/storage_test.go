package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kae-hq/kae/pkg/config"
	"kae-hq/kae/pkg/history"
)

// backends returns every Storage implementation, each backed by a fresh
// database under t.TempDir.
func backends(t *testing.T) map[string]history.Storage {
	t.Helper()

	out := map[string]history.Storage{"memory": NewMemoryStorage()}
	for _, driver := range []string{DriverMattn, DriverModernc} {
		s, err := NewSQLiteStorage(&SQLiteConfig{
			Driver:      driver,
			Path:        filepath.Join(t.TempDir(), driver, "history.db"),
			WALMode:     true,
			BusyTimeout: time.Second,
		})
		if err != nil {
			t.Fatalf("NewSQLiteStorage(%s) failed: %v", driver, err)
		}
		out[driver] = s
	}
	for _, s := range out {
		s := s
		t.Cleanup(func() { _ = s.Close() })
	}
	return out
}

var baseTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newRecord(i int, appName string, valid bool) *history.Record {
	r := &history.Record{
		ID:             fmt.Sprintf("rec-%02d", i),
		AppName:        appName,
		Source:         appName + ".yaml",
		Kind:           "file",
		DescriptorHash: fmt.Sprintf("%064d", i),
		Size:           100 + i,
		Valid:          valid,
		Duration:       time.Duration(i) * time.Microsecond,
		RecordedAt:     baseTime.Add(time.Duration(i) * time.Hour),
	}
	if !valid {
		r.ErrorCount = 1
		r.Errors = []history.ErrorEntry{{
			Path:    "service.ports[0].targetPort",
			Kind:    "unresolved_port",
			Message: "target port 1234 matches no container port",
			Line:    8,
		}}
	}
	return r
}

func seed(t *testing.T, s history.Storage) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		app := "hello"
		if i%2 == 1 {
			app = "worker"
		}
		if err := s.Store(ctx, newRecord(i, app, i%3 != 0)); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}
}

func TestStorage_StoreAndQuery(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := newRecord(1, "hello", false)
			want.RequestID = "req-1"
			want.Commit = "abc123"
			if err := s.Store(ctx, want); err != nil {
				t.Fatalf("Store() failed: %v", err)
			}

			got, err := s.Query(ctx, &history.Query{IDs: []string{want.ID}})
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("Query() returned %d records, want 1", len(got))
			}

			r := got[0]
			if r.AppName != want.AppName || r.Valid != want.Valid || r.ErrorCount != 1 {
				t.Errorf("record = %+v", r)
			}
			if r.RequestID != "req-1" || r.Commit != "abc123" {
				t.Errorf("optional fields lost: request_id=%q commit=%q", r.RequestID, r.Commit)
			}
			if !r.RecordedAt.Equal(want.RecordedAt) {
				t.Errorf("RecordedAt = %v, want %v", r.RecordedAt, want.RecordedAt)
			}
			if r.Duration != want.Duration {
				t.Errorf("Duration = %v, want %v", r.Duration, want.Duration)
			}
			if len(r.Errors) != 1 || r.Errors[0].Path != "service.ports[0].targetPort" || r.Errors[0].Line != 8 {
				t.Errorf("Errors = %+v", r.Errors)
			}
		})
	}
}

func TestStorage_QueryFilters(t *testing.T) {
	start := baseTime.Add(2 * time.Hour)
	end := baseTime.Add(4 * time.Hour)

	tests := []struct {
		name  string
		query *history.Query
		want  []string
	}{
		{"all newest first", &history.Query{}, []string{"rec-05", "rec-04", "rec-03", "rec-02", "rec-01", "rec-00"}},
		{"ascending", &history.Query{SortOrder: history.SortAsc, Limit: 2}, []string{"rec-00", "rec-01"}},
		{"by app", &history.Query{AppName: "worker"}, []string{"rec-05", "rec-03", "rec-01"}},
		{"invalid only", &history.Query{Valid: history.Bool(false)}, []string{"rec-03", "rec-00"}},
		{"time range", &history.Query{StartTime: &start, EndTime: &end}, []string{"rec-04", "rec-03", "rec-02"}},
		{"offset", &history.Query{Limit: 2, Offset: 1}, []string{"rec-04", "rec-03"}},
		{"offset past end", &history.Query{Offset: 10}, nil},
		{"no match", &history.Query{AppName: "missing"}, nil},
	}

	for name, s := range backends(t) {
		seed(t, s)
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				got, err := s.Query(context.Background(), tt.query)
				if err != nil {
					t.Fatalf("Query() failed: %v", err)
				}
				if got == nil {
					t.Fatal("Query() returned nil slice, want empty")
				}
				var ids []string
				for _, r := range got {
					ids = append(ids, r.ID)
				}
				if fmt.Sprint(ids) != fmt.Sprint(tt.want) {
					t.Errorf("Query() = %v, want %v", ids, tt.want)
				}
			})
		}
	}
}

func TestStorage_CountAndDelete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seed(t, s)

			count, err := s.Count(ctx, &history.Query{AppName: "hello"})
			if err != nil {
				t.Fatalf("Count() failed: %v", err)
			}
			if count != 3 {
				t.Errorf("Count(hello) = %d, want 3", count)
			}

			cutoff := baseTime.Add(time.Hour)
			deleted, err := s.Delete(ctx, &history.Query{EndTime: &cutoff})
			if err != nil {
				t.Fatalf("Delete() failed: %v", err)
			}
			if deleted != 2 {
				t.Errorf("Delete() = %d, want 2", deleted)
			}

			deleted, err = s.Delete(ctx, &history.Query{IDs: []string{"rec-04", "rec-05", "nope"}})
			if err != nil {
				t.Fatalf("Delete(ids) failed: %v", err)
			}
			if deleted != 2 {
				t.Errorf("Delete(ids) = %d, want 2", deleted)
			}

			total, err := s.Count(ctx, &history.Query{})
			if err != nil {
				t.Fatalf("Count() failed: %v", err)
			}
			if total != 2 {
				t.Errorf("remaining = %d, want 2", total)
			}

			if err := s.Ping(ctx); err != nil {
				t.Errorf("Ping() failed: %v", err)
			}
		})
	}
}

func TestMemoryStorage_CopiesRecords(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	r := newRecord(1, "hello", false)
	if err := s.Store(ctx, r); err != nil {
		t.Fatal(err)
	}
	r.AppName = "mutated"
	r.Errors[0].Path = "mutated"

	got, _ := s.Query(ctx, &history.Query{})
	if got[0].AppName != "hello" || got[0].Errors[0].Path == "mutated" {
		t.Errorf("stored record was mutated through the caller's pointer: %+v", got[0])
	}
}

func TestSQLiteStorage_Initialize(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	s, err := NewSQLiteStorage(&SQLiteConfig{Driver: DriverModernc, Path: dbPath, WALMode: true})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file was not created: %v", err)
	}

	// Reopening an existing database keeps the schema version.
	s2, err := NewSQLiteStorage(&SQLiteConfig{Driver: DriverModernc, Path: dbPath})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	s2.Close()
}

func TestNewSQLiteStorage_Errors(t *testing.T) {
	tests := []struct {
		name   string
		config *SQLiteConfig
	}{
		{"unknown driver", &SQLiteConfig{Driver: "postgres", Path: "x.db"}},
		{"empty path", &SQLiteConfig{Driver: DriverModernc}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSQLiteStorage(tt.config)
			var storageErr *history.StorageError
			if !errors.As(err, &storageErr) {
				t.Fatalf("expected *history.StorageError, got %v", err)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	cfg := config.Default().History

	cfg.Driver = "memory"
	s, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open(memory) failed: %v", err)
	}
	if _, ok := s.(*MemoryStorage); !ok {
		t.Errorf("Open(memory) = %T", s)
	}

	cfg.Driver = DriverModernc
	cfg.Path = filepath.Join(t.TempDir(), "history.db")
	s, err = Open(&cfg)
	if err != nil {
		t.Fatalf("Open(sqlite) failed: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStorage); !ok {
		t.Errorf("Open(sqlite) = %T", s)
	}

	cfg.Driver = "bolt"
	if _, err := Open(&cfg); err == nil {
		t.Error("expected error for unknown driver")
	}
}
