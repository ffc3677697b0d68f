// Package middleware provides the HTTP middleware chain of the campusnav API.
//
//   - recovery.go: Panic recovery
//   - request_id.go: Request ID propagation (UUIDs for new requests)
//   - logging.go: Structured request logging
//   - cors.go: Cross-Origin Resource Sharing for the map front end
//   - security_headers.go: Security response headers
//   - body_limit.go: Request body size limit
//   - metrics.go: HTTP metrics
//
// All middleware follows the standard pattern: func(http.Handler) http.Handler
//
//	handler := middleware.Metrics(registry)(mux)
//	handler = middleware.BodySizeLimit(10 << 20)(handler)
//	handler = middleware.CORS(middleware.DefaultCORSConfig())(handler)
//	handler = middleware.Logging(logger)(handler)
//	handler = middleware.RequestID()(handler)
//	handler = middleware.PanicRecovery(logger)(handler)
package middleware
