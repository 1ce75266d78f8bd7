package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"kae-hq/kae/pkg/cli"
	"kae-hq/kae/pkg/history"
)

func TestBuildHistoryQuery(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		set     func()
		check   func(t *testing.T, q *history.Query)
		wantErr bool
	}{
		{
			name: "defaults",
			set:  func() {},
			check: func(t *testing.T, q *history.Query) {
				if q.Limit != history.DefaultQueryLimit || q.SortOrder != history.SortDesc || q.Valid != nil {
					t.Errorf("unexpected query %+v", q)
				}
			},
		},
		{
			name: "filters",
			set: func() {
				historyFlags.app = "hello"
				historyFlags.kind = "git"
				historyFlags.valid = "false"
				historyFlags.order = "ASC"
			},
			check: func(t *testing.T, q *history.Query) {
				if q.AppName != "hello" || q.Kind != "git" || q.SortOrder != history.SortAsc {
					t.Errorf("unexpected query %+v", q)
				}
				if q.Valid == nil || *q.Valid {
					t.Error("expected valid=false filter")
				}
			},
		},
		{
			name: "relative and absolute times",
			set: func() {
				historyFlags.since = "24h"
				historyFlags.until = "2026-03-02T11:00:00Z"
			},
			check: func(t *testing.T, q *history.Query) {
				if !q.StartTime.Equal(now.Add(-24 * time.Hour)) {
					t.Errorf("StartTime = %v", q.StartTime)
				}
				if !q.EndTime.Equal(now.Add(-time.Hour)) {
					t.Errorf("EndTime = %v", q.EndTime)
				}
			},
		},
		{
			name: "id ignores filters",
			set: func() {
				historyFlags.id = "abc"
				historyFlags.valid = "maybe"
			},
			check: func(t *testing.T, q *history.Query) {
				if len(q.IDs) != 1 || q.IDs[0] != "abc" || q.Limit != 1 {
					t.Errorf("unexpected query %+v", q)
				}
			},
		},
		{name: "bad valid", set: func() { historyFlags.valid = "maybe" }, wantErr: true},
		{name: "bad order", set: func() { historyFlags.order = "random" }, wantErr: true},
		{name: "bad since", set: func() { historyFlags.since = "yesterday" }, wantErr: true},
		{name: "negative duration", set: func() { historyFlags.since = "-1h" }, wantErr: true},
		{
			name: "until before since",
			set: func() {
				historyFlags.since = "1h"
				historyFlags.until = "2h"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTest(t, "")
			tt.set()

			q, err := buildHistoryQuery(now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildHistoryQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, q)
			}
		})
	}
}

func TestQueryHistory_ByID(t *testing.T) {
	dir := setupTest(t, "")
	validateFlags.files = []string{writeFile(t, dir, "app.yaml", invalidDescriptor)}
	validateFlags.record = true

	cmd, _ := newTestCommand("")
	if err := runValidate(cmd, nil); !errors.Is(err, cli.ErrInvalidDescriptors) {
		t.Fatalf("runValidate() error = %v", err)
	}

	cmd, out := newTestCommand("")
	if err := queryHistory(cmd, nil); err != nil {
		t.Fatalf("queryHistory() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "ID") {
		t.Fatalf("unexpected table:\n%s", out.String())
	}
	shortID := strings.Fields(lines[1])[0]

	// Look the record up by its full ID through the JSON listing.
	historyFlags.format = "json"
	cmd, out = newTestCommand("")
	if err := queryHistory(cmd, nil); err != nil {
		t.Fatal(err)
	}
	start := strings.Index(out.String(), `"id": "`) + len(`"id": "`)
	id := out.String()[start : start+36]
	if !strings.HasPrefix(id, shortID) {
		t.Fatalf("id %q does not match table %q", id, shortID)
	}

	historyFlags.format = "text"
	historyFlags.id = id
	cmd, out = newTestCommand("")
	if err := queryHistory(cmd, nil); err != nil {
		t.Fatalf("queryHistory(--id) error = %v", err)
	}
	if !strings.Contains(out.String(), "id:        "+id) || !strings.Contains(out.String(), "[format]") {
		t.Errorf("unexpected record output:\n%s", out.String())
	}

	historyFlags.id = "00000000-0000-0000-0000-000000000000"
	cmd, _ = newTestCommand("")
	if err := queryHistory(cmd, nil); err == nil {
		t.Error("expected not found error")
	}
}

func TestPruneHistory(t *testing.T) {
	dir := setupTest(t, "")
	validateFlags.files = []string{
		writeFile(t, dir, "a.yaml", validDescriptor),
		writeFile(t, dir, "b.yaml", validDescriptor),
		writeFile(t, dir, "c.yaml", validDescriptor),
	}
	validateFlags.record = true

	cmd, _ := newTestCommand("")
	if err := runValidate(cmd, nil); err != nil {
		t.Fatalf("runValidate() error = %v", err)
	}

	historyFlags.maxRecords = 1
	cmd, out := newTestCommand("")
	if err := pruneHistory(cmd, nil); err != nil {
		t.Fatalf("pruneHistory() error = %v", err)
	}
	if got := out.String(); got != "✓ Pruned 2 records\n" {
		t.Errorf("output = %q", got)
	}

	historyFlags.format = "json"
	cmd, out = newTestCommand("")
	if err := queryHistory(cmd, nil); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out.String(), `"id":`); n != 1 {
		t.Errorf("%d records left, want 1", n)
	}
}

func TestPruneHistory_KeepForever(t *testing.T) {
	setupTest(t, "")
	historyFlags.days = 0

	cmd, out := newTestCommand("")
	if err := pruneHistory(cmd, nil); err != nil {
		t.Fatalf("pruneHistory() error = %v", err)
	}
	if got := out.String(); got != "✓ Pruned 0 records\n" {
		t.Errorf("output = %q", got)
	}
}
