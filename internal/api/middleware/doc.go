// Package middleware provides the gin middleware of the formfill API.
//
// Middleware stack includes:
//   - RequestID: X-Request-ID tagging, reusing valid client ids
//   - Logger: one zap access log line per request
//   - CORS: cross-origin reads with configurable origins
//   - RateLimit: per-IP token buckets with idle eviction
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Logger(log))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
