package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"kae-hq/kae/pkg/config"
)

// Result label values.
const (
	ResultValid   = "valid"
	ResultInvalid = "invalid"
)

// ValidationMetrics tracks descriptor validation runs.
//
// Metrics:
//   - kae_validator_validations_total: validations by source and result
//   - kae_validator_errors_total: reported errors by error type
//   - kae_validator_validation_duration_seconds: parse and validate time
//   - kae_validator_descriptor_bytes: size of validated descriptors
type ValidationMetrics struct {
	validationsTotal *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	descriptorBytes  prometheus.Histogram
}

// NewValidationMetrics creates and registers validation metrics with the provided registry.
func NewValidationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ValidationMetrics {
	vm := &ValidationMetrics{
		validationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validations_total",
				Help:      "Total number of descriptor validations",
			},
			[]string{"source", "result"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "errors_total",
				Help:      "Total number of validation errors reported, by error type",
			},
			[]string{"type"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "validation_duration_seconds",
				Help:      "Time spent parsing and validating a descriptor",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"result"},
		),

		descriptorBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "descriptor_bytes",
				Help:      "Size of validated descriptors in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8), // 256B to 4MB
			},
		),
	}

	registry.MustRegister(
		vm.validationsTotal,
		vm.errorsTotal,
		vm.duration,
		vm.descriptorBytes,
	)

	return vm
}

// Record records a single validation run.
func (vm *ValidationMetrics) Record(source string, valid bool, errorTypes []string, duration time.Duration, size int) {
	result := ResultInvalid
	if valid {
		result = ResultValid
	}

	vm.validationsTotal.WithLabelValues(source, result).Inc()
	vm.duration.WithLabelValues(result).Observe(duration.Seconds())
	if size > 0 {
		vm.descriptorBytes.Observe(float64(size))
	}
	for _, t := range errorTypes {
		vm.errorsTotal.WithLabelValues(t).Inc()
	}
}
