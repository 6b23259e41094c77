package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resource-index/internal/database"
	"resource-index/internal/filesystem"
	"resource-index/internal/handlers"
	"resource-index/internal/index"
	"resource-index/internal/indexer"
	"resource-index/internal/logging"
	"resource-index/internal/memory"
	"resource-index/internal/metrics"
	"resource-index/internal/middleware"
	"resource-index/internal/startup"

	"github.com/gorilla/mux"
)

const (
	shutdownTimeout        = 30 * time.Second
	metricsCollectInterval = 1 * time.Minute
	vacuumInterval         = 24 * time.Hour
	journalWriteTimeout    = 10 * time.Second
)

func main() {
	startTime := time.Now()

	// Set GOMEMLIMIT before significant allocations
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"root":     config.RootDir,
		"database": config.DatabaseDir,
	}))

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Compact the journal periodically
	stopVacuum := make(chan struct{})
	go vacuumLoop(db, vacuumInterval, stopVacuum)

	// Start memory monitor for scan backpressure
	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.Start()

	// Initialize indexer
	startup.LogIndexerInit(config.RootDir, config.UpdateInterval, config.ScanWorkers)
	idx := indexer.New(config.RootDir, config.UpdateInterval,
		index.WithWorkers(config.ScanWorkers),
		index.WithGate(memMonitor),
	)
	idx.SetOnUpdate(journalRecorder(db, config.JournalKeep))

	// Start indexer in background (non-blocking)
	if err := idx.Start(); err != nil {
		logging.Error("Failed to start indexer: %v", err)
	}
	startup.LogIndexerStarted()

	// Start metrics collector
	collector := metrics.NewCollector(idx, config.DatabasePath, metricsCollectInterval)
	collector.Start()

	// Initialize handlers
	h := handlers.New(db, idx)
	h.SetMemory(memMonitor)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	srv := newServer(":"+config.Port, buildHandler(router, config))

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(":"+config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, idx, collector, memMonitor, stopVacuum)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	h.Register(r)
	return r
}

// buildHandler wraps the router in the metrics, logging and compression
// middleware, innermost first.
func buildHandler(router http.Handler, config *startup.Config) http.Handler {
	handler := router

	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	return middleware.Compression(middleware.DefaultCompressionConfig())(handler)
}

func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

func newMetricsServer(addr string, h *handlers.Handlers) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", h.MetricsHandler())
	metricsMux.HandleFunc("/health", h.LivenessCheck)

	return &http.Server{
		Addr:         addr,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// journalRecorder persists every non-empty update and keeps the journal
// trimmed to keep entries. keep <= 0 disables pruning.
func journalRecorder(db *database.Database, keep int) func(indexer.UpdateEvent) {
	return func(ev indexer.UpdateEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		defer cancel()

		rec := database.NewUpdateRecord(ev.Root, ev.Update, ev.Started, ev.Duration)
		id, err := db.RecordUpdate(ctx, rec)
		if err != nil {
			logging.Error("Failed to record update: %v", err)
			return
		}
		logging.Debug("Recorded update %d (added=%d, deleted=%d, moved=%d)",
			id, rec.AddedCount, rec.DeletedCount, rec.MovedCount)

		if keep <= 0 {
			return
		}
		removed, err := db.PruneUpdates(ctx, keep)
		if err != nil {
			logging.Warn("Failed to prune update journal: %v", err)
			return
		}
		if removed > 0 {
			logging.Debug("Pruned %d old updates from journal", removed)
		}
	}
}

func vacuumLoop(db *database.Database, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if err := db.Vacuum(ctx); err != nil {
				logging.Warn("Journal vacuum failed: %v", err)
			}
			cancel()
		case <-stop:
			return
		}
	}
}

func handleShutdown(srv, metricsSrv *http.Server, idx *indexer.Indexer, collector *metrics.Collector, memMonitor *memory.Monitor, stopVacuum chan struct{}) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Stopping indexer")
	idx.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	startup.LogShutdownStep("Stopping background workers")
	collector.Stop()
	memMonitor.Stop()
	close(stopVacuum)
	startup.LogShutdownStepComplete("Background workers stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
