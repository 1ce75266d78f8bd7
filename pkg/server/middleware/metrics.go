package middleware

import (
	"net/http"
	"time"

	"kae-hq/kae/pkg/telemetry/metrics"
)

// Metrics records request counts, latency and in-flight requests.
func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			collector.HTTPInFlight(1)
			defer collector.HTTPInFlight(-1)

			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			collector.RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
		})
	}
}
