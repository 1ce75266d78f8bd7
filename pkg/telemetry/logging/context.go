package logging

import "context"

type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// SourceKey is the context key for the descriptor being validated.
	SourceKey contextKey = "source"

	// AppNameKey is the context key for the descriptor's appname.
	AppNameKey contextKey = "appname"

	// CommitKey is the context key for the Git commit being validated.
	CommitKey contextKey = "commit"

	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// WithSource adds the descriptor source (file path or "stdin") to the context.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, SourceKey, source)
}

// GetSource retrieves the descriptor source from the context.
func GetSource(ctx context.Context) string {
	return stringValue(ctx, SourceKey)
}

// WithAppName adds the descriptor appname to the context.
func WithAppName(ctx context.Context, appName string) context.Context {
	return context.WithValue(ctx, AppNameKey, appName)
}

// GetAppName retrieves the descriptor appname from the context.
func GetAppName(ctx context.Context) string {
	return stringValue(ctx, AppNameKey)
}

// WithCommit adds a Git commit hash to the context.
func WithCommit(ctx context.Context, commit string) context.Context {
	return context.WithValue(ctx, CommitKey, commit)
}

// GetCommit retrieves the Git commit hash from the context.
func GetCommit(ctx context.Context) string {
	return stringValue(ctx, CommitKey)
}

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// extractContextFields returns the context's log fields as key-value pairs.
func extractContextFields(ctx context.Context) []any {
	var fields []any
	for _, key := range []contextKey{RequestIDKey, SourceKey, AppNameKey, CommitKey, TraceIDKey} {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}
	return fields
}
