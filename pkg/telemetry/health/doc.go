// Package health implements the liveness and readiness probes of the
// validation service.
//
// Liveness only reports that the process runs. Readiness runs every
// registered CheckFunc concurrently, each bounded by the configured check
// timeout, and answers 503 if any of them fails.
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("history", store.Ping)
//	checker.Register(mux, "/health", "/ready")
package health
