package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the history database schema.
// Timestamps and durations are stored as integer nanoseconds so that both
// SQLite drivers compare and scan them identically.
const Schema = `
CREATE TABLE IF NOT EXISTS validations (
    id TEXT PRIMARY KEY,
    request_id TEXT,

    appname TEXT NOT NULL,
    source TEXT NOT NULL,
    kind TEXT NOT NULL,
    git_commit TEXT,
    descriptor_hash TEXT NOT NULL,
    size INTEGER NOT NULL,

    valid INTEGER NOT NULL,
    error_count INTEGER NOT NULL,
    errors TEXT,
    duration_ns INTEGER NOT NULL,

    recorded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_validations_recorded_at ON validations(recorded_at);
CREATE INDEX IF NOT EXISTS idx_validations_appname ON validations(appname);
CREATE INDEX IF NOT EXISTS idx_validations_valid ON validations(valid);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, ?)
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const recordColumns = `id, request_id, appname, source, kind, git_commit, descriptor_hash, size,
	valid, error_count, errors, duration_ns, recorded_at`
