package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Register mounts every API route on router.
func (h *Handlers) Register(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet).Name("health")
	router.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet).Name("healthz")
	router.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead).Name("livez")
	router.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet).Name("readyz")
	router.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet).Name("version")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/index/stats", h.GetIndexStats).Methods(http.MethodGet).Name("index-stats")
	api.HandleFunc("/index/resource", h.GetResource).Methods(http.MethodGet).Name("index-resource")
	api.HandleFunc("/index/paths", h.ListPaths).Methods(http.MethodGet).Name("index-paths")
	api.HandleFunc("/index/update", h.RunUpdate).Methods(http.MethodPost).Name("index-update")
	api.HandleFunc("/updates", h.ListUpdates).Methods(http.MethodGet).Name("updates")
	api.HandleFunc("/updates/{id:[0-9]+}", h.GetUpdate).Methods(http.MethodGet).Name("update")
}
