// Package tracing provides OpenTelemetry distributed tracing for kae.
//
// Spans are exported over OTLP gRPC. When tracing is disabled New returns a
// noop tracer, so instrumented code never needs to check.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "appspec.validate")
//	defer span.End()
//	tracing.SetValidationAttributes(span, "hello", "web", false, 3)
//
// The HTTP validation service wraps its handler in HTTPMiddleware, which
// continues traces from incoming W3C traceparent headers.
package tracing
