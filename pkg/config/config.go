package config

import "time"

// Config is the root configuration structure for kae.
// It contains the validation engine settings and the configuration of the
// supporting infrastructure: telemetry, validation history, file and Git
// watching, and the HTTP validation service.
type Config struct {
	// Validation contains descriptor validation settings.
	Validation ValidationConfig `yaml:"validation"`

	// Telemetry contains configuration for observability including logging,
	// metrics, tracing and health endpoints.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// History contains configuration for the validation history store.
	History HistoryConfig `yaml:"history"`

	// Watch contains configuration for re-validating files on change.
	Watch WatchConfig `yaml:"watch"`

	// Git contains configuration for validating descriptors kept in a Git
	// repository.
	Git GitConfig `yaml:"git"`

	// Server contains HTTP validation service configuration.
	Server ServerConfig `yaml:"server"`
}

// ValidationConfig contains descriptor validation settings.
type ValidationConfig struct {
	// StrictFields reports keys that are not part of the descriptor format
	// instead of ignoring them.
	// Default: false
	StrictFields bool `yaml:"strict_fields"`

	// MaxFileSize is the largest descriptor accepted, in bytes.
	// Default: 10485760 (10MB)
	MaxFileSize int64 `yaml:"max_file_size"`

	// AppTypes is the set of accepted values for the descriptor's type field.
	// Default: ["web", "worker", "job"]
	AppTypes []string `yaml:"app_types"`

	// MetricTargets maps each accepted autoscaling metric name to the target
	// kinds it supports ("averageUtilization", "averageValue").
	// Default: {cpu: [averageUtilization], memory: [averageValue]}
	MetricTargets map[string][]string `yaml:"metric_targets"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "kae"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "validator"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for validation duration (seconds).
	// Default: exponential from 50µs to ~0.4s
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "kae"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the collector connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout is the export timeout.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// HistoryConfig contains configuration for the validation history store.
// History records the outcome of each validation run; descriptors
// themselves are never stored.
type HistoryConfig struct {
	// Enabled controls whether validation runs are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Driver selects the storage backend.
	// Options: "sqlite3" (cgo, mattn/go-sqlite3), "sqlite" (pure Go,
	// modernc.org/sqlite), "memory"
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file path for the SQLite drivers.
	// Default: "data/history.db"
	Path string `yaml:"path"`

	// BusyTimeout is the SQLite busy timeout.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// Retention contains the pruning policy.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig contains retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to keep records. 0 keeps records forever.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords caps the number of stored records. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a standard cron expression for automatic pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// WatchConfig contains configuration for watching descriptor files.
type WatchConfig struct {
	// Debounce is how long to wait after the last change event before
	// re-validating.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`

	// Extensions lists the file extensions treated as descriptors.
	// Default: [".yaml", ".yml", ".json"]
	Extensions []string `yaml:"extensions"`
}

// GitConfig configures validation of descriptors kept in a Git repository.
type GitConfig struct {
	// Repository URL (HTTPS or SSH).
	// Example: "https://github.com/company/deploy.git"
	Repository string `yaml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path within the repository holding descriptors.
	// Default: "" (repository root)
	Path string `yaml:"path"`

	// Auth configures Git authentication.
	Auth GitAuthConfig `yaml:"auth"`

	// Poll configures change detection for `kae watch --git`.
	Poll GitPollConfig `yaml:"poll"`

	// Clone configures the local checkout.
	Clone GitCloneConfig `yaml:"clone"`
}

// GitAuthConfig configures Git authentication.
type GitAuthConfig struct {
	// Type is the authentication method.
	// Options: "none", "token", "ssh"
	// Default: "none"
	Type string `yaml:"type"`

	// Token is a personal access token for HTTPS authentication.
	Token string `yaml:"token"`

	// SSHKeyPath is the private key used for SSH authentication.
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase unlocks an encrypted SSH key.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// GitPollConfig configures how often the repository is checked for changes.
type GitPollConfig struct {
	// Interval between pulls.
	// Default: 30s
	Interval time.Duration `yaml:"interval"`

	// Timeout for a single clone or pull.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`
}

// GitCloneConfig configures the local checkout.
type GitCloneConfig struct {
	// Depth limits history for shallow clones. 0 clones full history.
	// Default: 1
	Depth int `yaml:"depth"`

	// LocalPath is where the repository is checked out.
	// Default: "<tmp>/kae-descriptors"
	LocalPath string `yaml:"local_path"`

	// CleanOnStart removes an existing checkout before cloning.
	// Default: false
	CleanOnStart bool `yaml:"clean_on_start"`
}

// ServerConfig contains configuration for the HTTP validation service.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes limits the size of a submitted descriptor.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}
