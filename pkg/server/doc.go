// Package server provides the HTTP validation service started by
// `kae serve`.
//
// # Routes
//
//   - POST /v1/validate - validate the request body (YAML or JSON)
//   - GET /v1/history - list validation records (history enabled only)
//   - GET /v1/history/{id} - fetch one record (history enabled only)
//   - GET /health, /ready, /version - liveness, readiness and build info
//   - GET /metrics - Prometheus metrics when enabled
//
// POST /v1/validate answers 200 with the normalized descriptor when it is
// valid, 422 with the error list and per-path report when it is not, 400
// when the body is not YAML or JSON and 413 when it exceeds
// server.max_body_bytes:
//
//	$ curl -s --data-binary @app.yaml 'localhost:8080/v1/validate?name=app.yaml'
//	{"valid":false,"source":"app.yaml","appname":"hello","errors":[
//	  {"path":"service.ports[0].targetPort","kind":"unresolved_port",
//	   "message":"...","file":"app.yaml","line":8,"column":19}], ...}
//
// # Middleware Chain
//
// From outermost: Recovery, RequestID, Logging, Metrics, Tracing.
//
// # Shutdown
//
// Start and Serve block until their context is cancelled, then drain
// in-flight requests for up to server.shutdown_timeout.
package server
