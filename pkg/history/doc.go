// Package history keeps an audit trail of validation runs.
//
// Every validation performed by the CLI or the HTTP service can be recorded
// as a Record: which descriptor was validated (by source and SHA-256 hash),
// whether it passed and which errors were reported. Descriptors themselves
// are never persisted.
//
// # Subpackages
//
//   - storage: memory and SQLite backends implementing Storage
//   - recorder: builds records from validation results and stores them
//   - retention: age and count based pruning on a cron schedule
//
// # SQLite drivers
//
// Two SQLite drivers are supported and selected by history.driver:
// "sqlite3" uses github.com/mattn/go-sqlite3 (cgo) and "sqlite" uses
// modernc.org/sqlite (pure Go). Both share one schema.
package history
