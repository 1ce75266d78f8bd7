// Package middleware provides the HTTP middleware used by the validation
// service: request IDs, access logging, panic recovery, Prometheus metrics
// and tracing.
//
// Each constructor returns a func(http.Handler) http.Handler except
// RequestID, which wraps a handler directly. The server applies them in
// this order, leaving Recovery outermost:
//
//	handler = middleware.Tracing(tracer)(handler)
//	handler = middleware.Metrics(collector)(handler)
//	handler = middleware.Logging(logger)(handler)
//	handler = middleware.RequestID(handler)
//	handler = middleware.Recovery(logger)(handler)
package middleware
