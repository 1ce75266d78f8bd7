package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"kae-hq/kae/pkg/config"
)

// HistoryMetrics tracks the validation history store.
type HistoryMetrics struct {
	writesTotal   *prometheus.CounterVec
	prunedTotal   prometheus.Counter
	pruneDuration prometheus.Histogram
	lastPrune     prometheus.Gauge
}

// NewHistoryMetrics creates and registers history metrics with the provided registry.
func NewHistoryMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HistoryMetrics {
	hm := &HistoryMetrics{
		writesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "history",
				Name:      "writes_total",
				Help:      "Total number of history record writes",
			},
			[]string{"status"},
		),

		prunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "history",
				Name:      "pruned_records_total",
				Help:      "Total number of history records removed by retention",
			},
		),

		pruneDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "history",
				Name:      "prune_duration_seconds",
				Help:      "Duration of retention runs",
				Buckets:   prometheus.DefBuckets,
			},
		),

		lastPrune: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "history",
				Name:      "last_prune_timestamp_seconds",
				Help:      "Unix time of the last retention run",
			},
		),
	}

	registry.MustRegister(hm.writesTotal, hm.prunedTotal, hm.pruneDuration, hm.lastPrune)

	return hm
}

// RecordWrite records a store attempt.
func (hm *HistoryMetrics) RecordWrite(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	hm.writesTotal.WithLabelValues(status).Inc()
}

// RecordPrune records a retention run.
func (hm *HistoryMetrics) RecordPrune(deleted int64, duration time.Duration) {
	hm.prunedTotal.Add(float64(deleted))
	hm.pruneDuration.Observe(duration.Seconds())
	hm.lastPrune.SetToCurrentTime()
}
