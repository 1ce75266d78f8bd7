package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const sampleTraceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func TestValidateTraceParent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid", sampleTraceParent, true},
		{"uppercase hex", "00-4BF92F3577B34DA6A3CE929D0E0E4736-00F067AA0BA902B7-01", true},
		{"too few parts", "00-4bf92f3577b34da6a3ce929d0e0e4736-01", false},
		{"short trace id", "00-4bf92f35-00f067aa0ba902b7-01", false},
		{"non hex", "00-4bf92f3577b34da6a3ce929d0e0e473z-00f067aa0ba902b7-01", false},
		{"zero trace id", "00-00000000000000000000000000000000-00f067aa0ba902b7-01", false},
		{"zero parent id", "00-4bf92f3577b34da6a3ce929d0e0e4736-0000000000000000-01", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateTraceParent(tt.input); got != tt.want {
				t.Errorf("ValidateTraceParent(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsSampledFromTraceParent(t *testing.T) {
	if !IsSampledFromTraceParent(sampleTraceParent) {
		t.Error("expected sampled flag to be set")
	}
	if IsSampledFromTraceParent("00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00") {
		t.Error("expected sampled flag to be clear")
	}
	if IsSampledFromTraceParent("garbage") {
		t.Error("invalid header reported as sampled")
	}
}

func TestExtractInject(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	in := http.Header{}
	in.Set("traceparent", sampleTraceParent)
	ctx := Extract(context.Background(), in)

	if got := TraceID(ctx); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("TraceID() = %q", got)
	}

	out := http.Header{}
	Inject(ctx, out)
	if out.Get("traceparent") != sampleTraceParent {
		t.Errorf("Inject() wrote %q, want %q", out.Get("traceparent"), sampleTraceParent)
	}
}

func TestHTTPMiddleware(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	var seen string
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/validate", nil)
	req.Header.Set("traceparent", sampleTraceParent)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("handler saw trace ID %q", seen)
	}
	if rec.Header().Get("X-Trace-ID") != seen {
		t.Errorf("X-Trace-ID = %q, want %q", rec.Header().Get("X-Trace-ID"), seen)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Header().Get("X-Trace-ID") != "" {
		t.Error("X-Trace-ID set without incoming trace context")
	}
}
