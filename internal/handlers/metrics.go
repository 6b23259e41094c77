package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the default Prometheus registry. It is mounted at
// /metrics on the separate METRICS_PORT listener, never on the API router.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.Handler()
}
