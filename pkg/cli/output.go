package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"sigs.k8s.io/yaml"

	"kae-hq/kae/pkg/appspec"
	"kae-hq/kae/pkg/appspec/types"
	"kae-hq/kae/pkg/history"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is human-readable output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatYAML is YAML output.
	FormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat validates a --format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// FileReport is the outcome for one descriptor.
type FileReport struct {
	Source  string          `json:"source"`
	Valid   bool            `json:"valid"`
	AppName string          `json:"appname,omitempty"`
	Errors  []appspec.Entry `json:"errors,omitempty"`

	// Spec is the normalized descriptor, included on request.
	Spec *types.AppSpec `json:"spec,omitempty"`
}

// Summary totals a Report.
type Summary struct {
	Files   int `json:"files"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
	Errors  int `json:"errors"`
}

// Report is the output of `kae validate`.
type Report struct {
	Results []FileReport `json:"results"`
	Summary Summary      `json:"summary"`
}

// NewReport builds a report from validation results. Normalized
// descriptors are included when withSpec is set.
func NewReport(results []*appspec.Result, withSpec bool) *Report {
	report := &Report{Results: make([]FileReport, 0, len(results))}
	for _, res := range results {
		fr := FileReport{
			Source:  res.Source,
			Valid:   res.Valid(),
			AppName: res.AppName,
			Errors:  res.Entries(),
		}
		if withSpec && fr.Valid {
			fr.Spec = res.Spec
		}

		report.Summary.Files++
		if fr.Valid {
			report.Summary.Valid++
		} else {
			report.Summary.Invalid++
		}
		report.Summary.Errors += len(fr.Errors)
		report.Results = append(report.Results, fr)
	}
	return report
}

// Err returns ErrInvalidDescriptors when any descriptor is invalid.
func (r *Report) Err() error {
	if r.Summary.Invalid > 0 {
		return fmt.Errorf("%d of %d descriptors: %w", r.Summary.Invalid, r.Summary.Files, ErrInvalidDescriptors)
	}
	return nil
}

// Formatter writes command output.
type Formatter interface {
	FormatTo(w io.Writer, data interface{}) error
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TextFormatter{}
	}
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to w as JSON.
func (f *JSONFormatter) FormatTo(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// YAMLFormatter formats output as YAML using the JSON field names.
type YAMLFormatter struct{}

// FormatTo writes data to w as YAML.
func (f *YAMLFormatter) FormatTo(w io.Writer, data interface{}) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	_, err = w.Write(out)
	return err
}

// TextFormatter formats reports and history records for terminals. Other
// values are printed with %v.
type TextFormatter struct{}

// FormatTo writes data to w as text.
func (f *TextFormatter) FormatTo(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case *Report:
		return writeReportText(w, v)
	case []*history.Record:
		return writeRecordsText(w, v)
	case *history.Record:
		return writeRecordText(w, v)
	default:
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
}

// writeReportText prints one block per descriptor:
//
//	deploy/app.yaml: invalid (1 error)
//	  deploy/app.yaml:8:19: service.ports[0].targetPort: ... [unresolved_port]
//	    hint: ...
func writeReportText(w io.Writer, r *Report) error {
	ew := &errWriter{w: w}
	for _, fr := range r.Results {
		if fr.Valid {
			ew.printf("%s: ok\n", fr.Source)
			if fr.Spec != nil {
				out, err := appspec.Encode(fr.Spec, appspec.FormatYAML)
				if err != nil {
					return err
				}
				ew.printf("---\n%s", out)
			}
			continue
		}

		ew.printf("%s: invalid (%s)\n", fr.Source, plural(len(fr.Errors), "error"))
		for _, e := range fr.Errors {
			ew.printf("  %s%s: %s [%s]\n", position(fr.Source, e), e.Path, e.Message, e.Kind)
			if e.Suggestion != "" {
				ew.printf("    hint: %s\n", e.Suggestion)
			}
		}
	}

	if r.Summary.Files > 1 {
		ew.printf("\n%s, %d valid, %d invalid, %s\n",
			plural(r.Summary.Files, "file"), r.Summary.Valid, r.Summary.Invalid, plural(r.Summary.Errors, "error"))
	}
	return ew.err
}

func position(source string, e appspec.Entry) string {
	if e.Line == 0 {
		return ""
	}
	file := e.File
	if file == "" {
		file = source
	}
	if e.Column > 0 {
		return fmt.Sprintf("%s:%d:%d: ", file, e.Line, e.Column)
	}
	return fmt.Sprintf("%s:%d: ", file, e.Line)
}

func writeRecordsText(w io.Writer, records []*history.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no records")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECORDED\tAPP\tKIND\tRESULT\tERRORS\tSOURCE")
	for _, r := range records {
		result := "valid"
		if !r.Valid {
			result = "invalid"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			shortID(r.ID), r.RecordedAt.Local().Format(time.DateTime), dash(r.AppName), r.Kind, result, r.ErrorCount, r.Source)
	}
	return tw.Flush()
}

func writeRecordText(w io.Writer, r *history.Record) error {
	ew := &errWriter{w: w}
	ew.printf("id:        %s\n", r.ID)
	ew.printf("recorded:  %s\n", r.RecordedAt.Local().Format(time.RFC3339))
	ew.printf("app:       %s\n", dash(r.AppName))
	ew.printf("source:    %s (%s)\n", r.Source, r.Kind)
	if r.Commit != "" {
		ew.printf("commit:    %s\n", r.Commit)
	}
	if r.RequestID != "" {
		ew.printf("request:   %s\n", r.RequestID)
	}
	ew.printf("sha256:    %s\n", r.DescriptorHash)
	ew.printf("valid:     %t\n", r.Valid)
	for _, e := range r.Errors {
		if e.Line > 0 {
			ew.printf("  line %d: %s: %s [%s]\n", e.Line, e.Path, e.Message, e.Kind)
		} else {
			ew.printf("  %s: %s [%s]\n", e.Path, e.Message, e.Kind)
		}
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
