package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values for configuration fields.
const (
	// Validation defaults
	DefaultStrictFields = false
	DefaultMaxFileSize  = int64(10 * 1024 * 1024)

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = int64(1024 * 1024)

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "text"
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "kae"
	DefaultMetricsSubsystem   = "validator"
	DefaultTracingEnabled     = false
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingServiceName = "kae"
	DefaultOTLPTimeout        = 10 * time.Second
	DefaultLivenessPath       = "/health"
	DefaultReadinessPath      = "/ready"
	DefaultHealthCheckTimeout = 5 * time.Second

	// History defaults
	DefaultHistoryEnabled       = false
	DefaultHistoryDriver        = "sqlite"
	DefaultHistoryPath          = "data/history.db"
	DefaultHistoryBusyTimeout   = 5 * time.Second
	DefaultRetentionDays        = 30
	DefaultRetentionMaxRecords  = int64(0)
	DefaultRetentionSchedule    = "0 3 * * *"
	DefaultWatchDebounce        = 100 * time.Millisecond
	DefaultGitBranch            = "main"
	DefaultGitAuthType          = "none"
	DefaultGitPollInterval      = 30 * time.Second
	DefaultGitPollTimeout       = 60 * time.Second
	DefaultGitCloneDepth        = 1
	DefaultGitCloneLocalDirName = "kae-descriptors"
)

// DefaultAppTypes is the accepted set of descriptor type values.
var DefaultAppTypes = []string{"web", "worker", "job"}

// DefaultMetricTargets is the autoscaling metric table.
var DefaultMetricTargets = map[string][]string{
	"cpu":    {"averageUtilization"},
	"memory": {"averageValue"},
}

// DefaultWatchExtensions lists the file extensions treated as descriptors.
var DefaultWatchExtensions = []string{".yaml", ".yml", ".json"}

// DefaultDurationBuckets are histogram buckets for validation duration.
// Validating a descriptor is in-memory work measured in microseconds.
var DefaultDurationBuckets = []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.4}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := preset()
	ApplyDefaults(cfg)
	return cfg
}

// preset returns a Config holding the defaults that ApplyDefaults cannot
// fill because their zero value is a valid setting: metrics enabled (false
// disables), retention days (0 keeps forever) and clone depth (0 clones full
// history). Files are decoded on top of it so explicit zeros survive.
func preset() *Config {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.History.Retention.Days = DefaultRetentionDays
	cfg.Git.Clone.Depth = DefaultGitCloneDepth
	return cfg
}

// ApplyDefaults applies default values to all configuration fields that have
// zero values. It modifies the config in place.
func ApplyDefaults(cfg *Config) {
	// Validation defaults
	if cfg.Validation.MaxFileSize == 0 {
		cfg.Validation.MaxFileSize = DefaultMaxFileSize
	}
	if len(cfg.Validation.AppTypes) == 0 {
		cfg.Validation.AppTypes = append([]string(nil), DefaultAppTypes...)
	}
	if len(cfg.Validation.MetricTargets) == 0 {
		cfg.Validation.MetricTargets = make(map[string][]string, len(DefaultMetricTargets))
		for name, kinds := range DefaultMetricTargets {
			cfg.Validation.MetricTargets[name] = append([]string(nil), kinds...)
		}
	}

	applyTelemetryDefaults(&cfg.Telemetry)

	// History defaults
	if cfg.History.Driver == "" {
		cfg.History.Driver = DefaultHistoryDriver
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.History.BusyTimeout == 0 {
		cfg.History.BusyTimeout = DefaultHistoryBusyTimeout
	}
	if cfg.History.Retention.PruneSchedule == "" {
		cfg.History.Retention.PruneSchedule = DefaultRetentionSchedule
	}

	// Watch defaults
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = append([]string(nil), DefaultWatchExtensions...)
	}

	// Git defaults
	if cfg.Git.Branch == "" {
		cfg.Git.Branch = DefaultGitBranch
	}
	if cfg.Git.Auth.Type == "" {
		cfg.Git.Auth.Type = DefaultGitAuthType
	}
	if cfg.Git.Poll.Interval == 0 {
		cfg.Git.Poll.Interval = DefaultGitPollInterval
	}
	if cfg.Git.Poll.Timeout == 0 {
		cfg.Git.Poll.Timeout = DefaultGitPollTimeout
	}
	if cfg.Git.Clone.LocalPath == "" {
		cfg.Git.Clone.LocalPath = filepath.Join(os.TempDir(), DefaultGitCloneLocalDirName)
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Metrics.DurationBuckets) == 0 {
		cfg.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}

	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	// A ratio of 0 with the ratio sampler is indistinguishable from unset.
	if cfg.Tracing.SampleRatio == 0 && cfg.Tracing.Sampler == "ratio" {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.OTLP.Timeout == 0 {
		cfg.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}

	if cfg.Health.LivenessPath == "" {
		cfg.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Health.ReadinessPath == "" {
		cfg.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Health.CheckTimeout == 0 {
		cfg.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
