package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"kae-hq/kae/pkg/config"
)

// Collector owns every Prometheus metric kae exports. All Record methods are
// no-ops when metrics are disabled, so callers never need to check.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	validationMetrics *ValidationMetrics
	httpMetrics       *HTTPMetrics
	historyMetrics    *HistoryMetrics
	sourceMetrics     *SourceMetrics

	// Limits distinct HTTP path labels; unknown paths collapse to "other".
	pathLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry with the Go
// runtime and process collectors is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = config.DefaultDurationBuckets
	}

	return &Collector{
		config:            cfg,
		registry:          registry,
		validationMetrics: NewValidationMetrics(cfg, registry),
		httpMetrics:       NewHTTPMetrics(cfg, registry),
		historyMetrics:    NewHistoryMetrics(cfg, registry),
		sourceMetrics:     NewSourceMetrics(cfg, registry),
		pathLimiter:       NewCardinalityLimiter(64),
	}
}

// RecordValidation records one validation run.
//
// Parameters:
//   - source: where the descriptor came from ("file", "stdin", "http", "git")
//   - valid: whether the descriptor passed validation
//   - errorTypes: the type of every reported error, one entry per error
//   - duration: time spent parsing and validating
//   - size: descriptor size in bytes
func (c *Collector) RecordValidation(source string, valid bool, errorTypes []string, duration time.Duration, size int) {
	if !c.config.Enabled {
		return
	}
	c.validationMetrics.Record(source, valid, errorTypes, duration, size)
}

// RecordHTTPRequest records a completed request to the validation service.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	if !c.pathLimiter.Allow(path) {
		path = "other"
	}
	c.httpMetrics.Record(method, path, status, duration)
}

// HTTPInFlight adjusts the in-flight request gauge by delta.
func (c *Collector) HTTPInFlight(delta float64) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.inFlight.Add(delta)
}

// RecordHistoryWrite records an attempt to store a validation record.
func (c *Collector) RecordHistoryWrite(err error) {
	if !c.config.Enabled {
		return
	}
	c.historyMetrics.RecordWrite(err)
}

// RecordHistoryPrune records records removed by a retention run.
func (c *Collector) RecordHistoryPrune(deleted int64, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.historyMetrics.RecordPrune(deleted, duration)
}

// RecordSourceSync records a Git clone or pull.
func (c *Collector) RecordSourceSync(operation string, err error, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.sourceMetrics.RecordSync(operation, err, duration)
}

// RecordWatchEvent records a file system change that triggered re-validation.
func (c *Collector) RecordWatchEvent(kind string) {
	if !c.config.Enabled {
		return
	}
	c.sourceMetrics.RecordWatchEvent(kind)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet may be used: it is already known or the
// limit has not been reached yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
