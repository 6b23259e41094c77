package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"resource-index/internal/metrics"
)

// MetricsConfig controls which requests are counted.
type MetricsConfig struct {
	SkipPaths []string
}

// DefaultMetricsConfig leaves out the scrape endpoint and the probes.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"},
	}
}

// Metrics records request count, latency and in-flight gauge per route.
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasAnyPrefix(r.URL.Path, config.SkipPaths) {
				next.ServeHTTP(w, r)
				return
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			rec := newRecorder(w)
			began := time.Now()
			next.ServeHTTP(rec, r)

			route := normalizePath(r.URL.Path)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(began).Seconds())
		})
	}
}

const maxRouteDepth = 3

// normalizePath keeps label cardinality bounded: numeric segments become
// {id} and anything past the third segment collapses into {path}.
func normalizePath(path string) string {
	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(segs) > maxRouteDepth && strings.Join(segs[maxRouteDepth:], "") != "" {
		segs = append(segs[:maxRouteDepth:maxRouteDepth], "{path}")
	}
	for i, s := range segs {
		if s == "" || s == "{path}" {
			continue
		}
		if _, err := strconv.ParseUint(s, 10, 64); err == nil {
			segs[i] = "{id}"
		}
	}
	return "/" + strings.Join(segs, "/")
}
