// Package handlers provides the HTTP API for the resource index.
//
// Routes:
//   - GET /health, /healthz: detailed status, 503 until the initial build is done
//   - GET|HEAD /livez: liveness probe
//   - GET /readyz: readiness probe
//   - GET /version: build information
//   - GET /api/index/stats: index shape as of the last pass
//   - GET /api/index/resource?path=: metadata for one tracked path
//   - GET /api/index/paths?prefix=&offset=&limit=: tracked paths in lexical order
//   - POST /api/index/update: run an update pass now, 409 while one is running
//   - GET /api/updates?limit=: journaled updates, newest first
//   - GET /api/updates/{id}: one journaled update with its entries
//
// The Prometheus endpoint is served separately on the metrics port.
package handlers
