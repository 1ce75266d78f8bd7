package recorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"kae-hq/kae/pkg/appspec"
	"kae-hq/kae/pkg/config"
	"kae-hq/kae/pkg/history"
	"kae-hq/kae/pkg/history/storage"
	"kae-hq/kae/pkg/telemetry/logging"
	"kae-hq/kae/pkg/telemetry/metrics"
)

const invalidDescriptor = `
appname: hello
type: web
builds:
- name: hello
service:
  ports:
  - port: 80
    targetPort: 1234
  containers:
  - name: hello
    ports:
    - containerPort: 8080
`

type failingStorage struct {
	*storage.MemoryStorage
}

func (failingStorage) Store(ctx context.Context, record *history.Record) error {
	return errors.New("disk full")
}

func TestNewRecord(t *testing.T) {
	res := appspec.NewEngine(nil).ValidateBytes(context.Background(), []byte(invalidDescriptor), "hello.yaml", appspec.SourceFile)

	ctx := logging.WithRequestID(context.Background(), "req-42")
	ctx = logging.WithCommit(ctx, "abc123")
	record := NewRecord(ctx, res)

	if len(record.ID) != 36 {
		t.Errorf("ID = %q, want UUID", record.ID)
	}
	if record.RequestID != "req-42" || record.Commit != "abc123" {
		t.Errorf("context fields = %q/%q", record.RequestID, record.Commit)
	}
	if record.Valid || record.ErrorCount != 1 || len(record.Errors) != 1 {
		t.Fatalf("outcome = valid:%v count:%d errors:%v", record.Valid, record.ErrorCount, record.Errors)
	}
	if record.Errors[0].Kind != "unresolved_port" || record.Errors[0].Line != 9 {
		t.Errorf("error entry = %+v", record.Errors[0])
	}
	if record.AppName != "hello" || record.DescriptorHash != res.Hash {
		t.Errorf("identity = %q/%q", record.AppName, record.DescriptorHash)
	}
}

func TestRecorder_Record(t *testing.T) {
	store := storage.NewMemoryStorage()
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true}, registry)
	rec := NewRecorder(store, &Config{AsyncBuffer: 4, WriteTimeout: time.Second}, collector)

	engine := appspec.NewEngine(nil)
	for i := 0; i < 3; i++ {
		res := engine.ValidateBytes(context.Background(), []byte(invalidDescriptor), "hello.yaml", appspec.SourceHTTP)
		if _, err := rec.Record(context.Background(), res); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
	}

	if err := rec.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	count, err := store.Count(context.Background(), &history.Query{Kind: appspec.SourceHTTP})
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("stored %d records, want 3", count)
	}

	if n, _ := testutil.GatherAndCount(registry, "kae_history_writes_total"); n != 1 {
		t.Errorf("writes_total series = %d, want 1", n)
	}

	res := engine.ValidateBytes(context.Background(), []byte(invalidDescriptor), "hello.yaml", appspec.SourceHTTP)
	if _, err := rec.Record(context.Background(), res); !errors.Is(err, ErrClosed) {
		t.Errorf("Record() after Close = %v, want ErrClosed", err)
	}
	if err := rec.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestRecorder_StoreFailure(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true}, registry)
	rec := NewRecorder(failingStorage{storage.NewMemoryStorage()}, nil, collector)

	res := appspec.NewEngine(nil).ValidateBytes(context.Background(), []byte(invalidDescriptor), "x", appspec.SourceStdin)
	if _, err := rec.Record(context.Background(), res); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	rec.Close()

	if n, _ := testutil.GatherAndCount(registry, "kae_history_writes_total"); n != 1 {
		t.Errorf("writes_total series = %d, want 1 (error)", n)
	}
}
