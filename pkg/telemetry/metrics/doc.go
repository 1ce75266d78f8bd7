// Package metrics exports Prometheus metrics for kae.
//
// Metrics are grouped by area: validation runs, the HTTP validation service,
// the history store, and descriptor sources (Git syncs and file watching).
// Names are prefixed with the configured namespace, "kae" by default:
//
//	kae_validator_validations_total{source,result}
//	kae_validator_errors_total{type}
//	kae_validator_validation_duration_seconds{result}
//	kae_http_requests_total{method,path,status}
//	kae_history_writes_total{status}
//	kae_source_git_syncs_total{operation,status}
//
// A Collector created with a nil registry also exports the Go runtime and
// process collectors.
package metrics
