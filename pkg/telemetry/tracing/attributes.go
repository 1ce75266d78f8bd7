package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys under the "kae." namespace.
const (
	AttrSource      = "kae.source"
	AttrSourceKind  = "kae.source.kind"
	AttrAppName     = "kae.appname"
	AttrAppType     = "kae.app.type"
	AttrValid       = "kae.valid"
	AttrErrorCount  = "kae.errors.count"
	AttrSizeBytes   = "kae.descriptor.bytes"
	AttrGitCommit   = "kae.git.commit"
	AttrGitBranch   = "kae.git.branch"
	AttrHistoryID   = "kae.history.id"
	AttrRequestID   = "kae.request_id"
	AttrFilesCount  = "kae.files.count"
	AttrChangedFile = "kae.file"
)

// SetValidationAttributes records the outcome of a validation on span.
func SetValidationAttributes(span trace.Span, appName, appType string, valid bool, errorCount int) {
	attrs := []attribute.KeyValue{
		attribute.Bool(AttrValid, valid),
		attribute.Int(AttrErrorCount, errorCount),
	}
	if appName != "" {
		attrs = append(attrs, attribute.String(AttrAppName, appName))
	}
	if appType != "" {
		attrs = append(attrs, attribute.String(AttrAppType, appType))
	}
	span.SetAttributes(attrs...)
}

// SetSourceAttributes records where a descriptor came from.
func SetSourceAttributes(span trace.Span, kind, source string, size int) {
	span.SetAttributes(
		attribute.String(AttrSourceKind, kind),
		attribute.String(AttrSource, source),
		attribute.Int(AttrSizeBytes, size),
	)
}

// SetGitAttributes records the Git revision being processed.
func SetGitAttributes(span trace.Span, branch, commit string) {
	span.SetAttributes(
		attribute.String(AttrGitBranch, branch),
		attribute.String(AttrGitCommit, commit),
	)
}

// AddEvent adds a named event with attributes to span.
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
