// Package middleware provides the HTTP middleware chain for the API server.
//
// It includes:
//   - Request logging in W3C Extended Log Format, with optional suppression
//     of health check probes
//   - Prometheus request metrics with low-cardinality path labels
//   - gzip compression for large JSON responses
package middleware
