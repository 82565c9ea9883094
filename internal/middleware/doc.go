// Package middleware provides the HTTP middleware stack for the
// terminal streaming service.
//
// Stack:
//   - CORS: cross-origin resource sharing for the desktop shell
//   - RateLimit: per-IP token bucket rate limiting
//   - Requests: request-ID tagging, structured request logging, and
//     Prometheus metrics
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
//	router.Use(middleware.Requests(logger, metrics))
package middleware
