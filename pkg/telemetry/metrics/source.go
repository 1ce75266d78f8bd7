package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"kae-hq/kae/pkg/config"
)

// SourceMetrics tracks where descriptors come from: Git syncs and file
// system watch events.
type SourceMetrics struct {
	syncsTotal   *prometheus.CounterVec
	syncDuration *prometheus.HistogramVec
	lastSync     prometheus.Gauge
	watchEvents  *prometheus.CounterVec
}

// NewSourceMetrics creates and registers source metrics with the provided registry.
func NewSourceMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SourceMetrics {
	sm := &SourceMetrics{
		syncsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "source",
				Name:      "git_syncs_total",
				Help:      "Total number of Git clone and pull operations",
			},
			[]string{"operation", "status"},
		),

		syncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "source",
				Name:      "git_sync_duration_seconds",
				Help:      "Duration of Git clone and pull operations",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),

		lastSync: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "source",
				Name:      "git_last_sync_timestamp_seconds",
				Help:      "Unix time of the last successful Git sync",
			},
		),

		watchEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "source",
				Name:      "watch_events_total",
				Help:      "Total number of descriptor changes that triggered re-validation",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(sm.syncsTotal, sm.syncDuration, sm.lastSync, sm.watchEvents)

	return sm
}

// RecordSync records a clone or pull.
func (sm *SourceMetrics) RecordSync(operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	} else {
		sm.lastSync.SetToCurrentTime()
	}
	sm.syncsTotal.WithLabelValues(operation, status).Inc()
	sm.syncDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordWatchEvent records a change notification.
func (sm *SourceMetrics) RecordWatchEvent(kind string) {
	sm.watchEvents.WithLabelValues(kind).Inc()
}
