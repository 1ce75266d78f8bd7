// Package telemetry wires kae's observability stack: structured logging,
// Prometheus metrics, OpenTelemetry tracing and health probes.
//
// # Components
//
//   - logging: slog-based structured logging with credential redaction
//   - metrics: Prometheus metrics for validations, HTTP, history and sources
//   - tracing: OpenTelemetry distributed tracing over OTLP gRPC
//   - health: liveness and readiness endpoints
//
// # Usage
//
//	tel, err := telemetry.New(&cfg.Telemetry, nil)
//	defer tel.Shutdown(context.Background())
//
//	tel.Logger().Info("descriptor validated", "errors", 0)
//	tel.Metrics().RecordValidation("file", true, nil, elapsed, size)
//	ctx, span := tel.Tracer().Start(ctx, "appspec.validate")
//	defer span.End()
package telemetry
