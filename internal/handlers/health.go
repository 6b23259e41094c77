package handlers

import (
	"net/http"
	"runtime"
	"time"

	"resource-index/internal/indexer"
	"resource-index/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status            string                 `json:"status"`
	Ready             bool                   `json:"ready"`
	Version           string                 `json:"version"`
	Uptime            string                 `json:"uptime"`
	Root              string                 `json:"root"`
	Updating          bool                   `json:"updating"`
	LastUpdated       string                 `json:"lastUpdated,omitempty"`
	LastDuration      string                 `json:"lastDuration,omitempty"`
	InitialBuildError string                 `json:"initialBuildError,omitempty"`
	Passes            int64                  `json:"passes"`
	Paths             int                    `json:"paths"`
	DistinctResources int                    `json:"distinctResources"`
	LastUpdate        *indexer.UpdateSummary `json:"lastUpdate,omitempty"`
	Memory            *MemoryInfo            `json:"memory,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// MemoryInfo is heap usage relative to the memory limit.
type MemoryInfo struct {
	UsageRatio  float64 `json:"usageRatio"`
	ScansPaused bool    `json:"scansPaused"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	status := h.indexer.GetHealthStatus()

	response := HealthResponse{
		Ready:             status.Ready,
		Version:           startup.Version,
		Uptime:            status.Uptime,
		Root:              status.Root,
		Updating:          status.Updating,
		LastDuration:      status.LastDuration,
		Passes:            status.Passes,
		Paths:             status.Paths,
		DistinctResources: status.DistinctResources,
		LastUpdate:        status.LastUpdate,
		GoVersion:         runtime.Version(),
		NumCPU:            runtime.NumCPU(),
		NumGoroutine:      runtime.NumGoroutine(),
	}

	if h.memory != nil {
		response.Memory = &MemoryInfo{
			UsageRatio:  h.memory.Usage(),
			ScansPaused: h.memory.IsPaused(),
		}
	}

	if status.Ready {
		response.Status = statusHealthy
	} else {
		response.Status = statusStarting
	}

	if !status.LastUpdated.IsZero() {
		response.LastUpdated = status.LastUpdated.Format(time.RFC3339)
	}

	if status.InitialBuildError != "" {
		response.InitialBuildError = status.InitialBuildError
		response.Status = statusDegraded
	}

	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, code, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only once the initial build has completed
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.indexer.IsReady() {
		writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}
