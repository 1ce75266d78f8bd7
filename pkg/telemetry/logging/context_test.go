package logging

import (
	"context"
	"testing"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithSource(ctx, "deploy/app.yaml")
	ctx = WithAppName(ctx, "hello")
	ctx = WithCommit(ctx, "abc123")
	ctx = WithTraceID(ctx, "trace-1")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"request id", GetRequestID(ctx), "req-1"},
		{"source", GetSource(ctx), "deploy/app.yaml"},
		{"appname", GetAppName(ctx), "hello"},
		{"commit", GetCommit(ctx), "abc123"},
		{"trace id", GetTraceID(ctx), "trace-1"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestContextKeys_Empty(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" || GetSource(ctx) != "" || GetAppName(ctx) != "" || GetCommit(ctx) != "" {
		t.Error("expected empty values from a bare context")
	}
	if fields := extractContextFields(ctx); len(fields) != 0 {
		t.Errorf("extractContextFields() = %v, want none", fields)
	}
}

func TestExtractContextFields(t *testing.T) {
	ctx := WithCommit(WithRequestID(context.Background(), "req-9"), "deadbeef")

	fields := extractContextFields(ctx)
	want := []any{"request_id", "req-9", "commit", "deadbeef"}
	if len(fields) != len(want) {
		t.Fatalf("extractContextFields() = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("fields[%d] = %v, want %v", i, fields[i], want[i])
		}
	}
}

func TestContextOverwrite(t *testing.T) {
	ctx := WithSource(context.Background(), "a.yaml")
	ctx = WithSource(ctx, "b.yaml")
	if got := GetSource(ctx); got != "b.yaml" {
		t.Errorf("GetSource() = %q, want b.yaml", got)
	}
}
