package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"sigs.k8s.io/yaml"

	"kae-hq/kae/pkg/appspec"
	"kae-hq/kae/pkg/history"
)

const validDescriptor = `appname: hello
type: web
builds:
- name: hello
service:
  ports:
  - port: 80
    targetPort: http
  containers:
  - name: hello-world
    ports:
    - name: http
      containerPort: 8080
`

const unresolvedDescriptor = `appname: hello
type: web
builds:
- name: hello
service:
  ports:
  - port: 80
    targetPort: 1234
  containers:
  - name: hello-world
    ports:
    - name: http
      containerPort: 8080
`

func testResults(t *testing.T) []*appspec.Result {
	t.Helper()
	engine := appspec.NewEngine(nil)
	ctx := context.Background()
	return []*appspec.Result{
		engine.ValidateBytes(ctx, []byte(validDescriptor), "ok.yaml", appspec.SourceFile),
		engine.ValidateBytes(ctx, []byte(unresolvedDescriptor), "bad.yaml", appspec.SourceFile),
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "text", want: FormatText},
		{in: "JSON", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewReport(t *testing.T) {
	report := NewReport(testResults(t), true)

	want := Summary{Files: 2, Valid: 1, Invalid: 1, Errors: 1}
	if report.Summary != want {
		t.Errorf("Summary = %+v, want %+v", report.Summary, want)
	}
	if report.Results[0].Spec == nil {
		t.Error("expected the normalized spec for the valid descriptor")
	}
	if report.Results[1].Spec != nil {
		t.Error("invalid descriptors must not carry a spec")
	}
	if !errors.Is(report.Err(), ErrInvalidDescriptors) {
		t.Errorf("Err() = %v, want ErrInvalidDescriptors", report.Err())
	}

	if err := NewReport(testResults(t)[:1], false).Err(); err != nil {
		t.Errorf("Err() for all-valid report = %v", err)
	}
}

func TestTextFormatter_Report(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatText).FormatTo(buf, NewReport(testResults(t), false)); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"ok.yaml: ok\n",
		"bad.yaml: invalid (1 error)\n",
		"bad.yaml:8:",
		"service.ports[0].targetPort: ",
		"[unresolved_port]",
		"2 files, 1 valid, 1 invalid, 1 error",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTextFormatter_NormalizedSpec(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatText).FormatTo(buf, NewReport(testResults(t)[:1], true)); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "---\n") || !strings.Contains(out, "appname: hello") {
		t.Errorf("expected normalized YAML after the result line:\n%s", out)
	}
	if strings.Contains(out, "files,") {
		t.Error("single-file output should not print a summary")
	}
}

func TestJSONFormatter_Report(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatJSON).FormatTo(buf, NewReport(testResults(t), false)); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var got Report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.Results) != 2 || got.Results[1].Errors[0].Kind != "unresolved_port" {
		t.Errorf("unexpected report %+v", got)
	}
	if got.Results[1].Errors[0].Line != 8 {
		t.Errorf("line = %d, want 8", got.Results[1].Errors[0].Line)
	}
}

func TestYAMLFormatter_Report(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatYAML).FormatTo(buf, NewReport(testResults(t), true)); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var got Report
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if got.Summary.Invalid != 1 || got.Results[0].Spec == nil || got.Results[0].Spec.AppName != "hello" {
		t.Errorf("unexpected report %+v", got)
	}
}

func TestTextFormatter_Records(t *testing.T) {
	records := []*history.Record{
		{
			ID:         "0f8fad5b-d9cb-469f-a165-70867728950e",
			AppName:    "hello",
			Source:     "deploy/app.yaml",
			Kind:       "file",
			Valid:      false,
			ErrorCount: 2,
			RecordedAt: time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
		},
	}

	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatText).FormatTo(buf, records); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ID", "RECORDED", "0f8fad5b", "hello", "invalid", "deploy/app.yaml"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	_ = NewFormatter(FormatText).FormatTo(buf, []*history.Record{})
	if buf.String() != "no records\n" {
		t.Errorf("empty output = %q", buf.String())
	}

	buf.Reset()
	records[0].Errors = []history.ErrorEntry{{Path: "appname", Kind: "format", Message: "bad", Line: 1}}
	_ = NewFormatter(FormatText).FormatTo(buf, records[0])
	if !strings.Contains(buf.String(), "line 1: appname: bad [format]") {
		t.Errorf("record detail missing error line:\n%s", buf.String())
	}
}

func TestTextFormatter_Fallback(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TextFormatter{}).FormatTo(buf, "kae 1.0.0"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "kae 1.0.0\n" {
		t.Errorf("FormatTo() = %q", buf.String())
	}
}
