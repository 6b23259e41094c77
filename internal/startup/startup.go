package startup

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"resource-index/internal/logging"
)

// Set at link time with -ldflags "-X resource-index/internal/startup.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

const rule = "============================================================"

// BuildInfo is the payload of /version.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo is one method/path pair registered on a router.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// ServerConfig feeds LogServerStarted.
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

func heading(format string, args ...interface{}) {
	logging.Info("")
	logging.Info(rule)
	logging.Info("= "+format, args...)
	logging.Info(rule)
}

// detail prints an aligned "label: value" line under the current heading.
func detail(label string, value interface{}) {
	logging.Info("  %-18s %v", label+":", value)
}

func done(format string, args ...interface{}) {
	logging.Info("  -> "+format, args...)
}

func LogDatabaseInit(duration time.Duration) {
	heading("update journal")
	done("opened in %v", duration.Round(time.Millisecond))
}

func LogIndexerInit(root string, interval time.Duration, workers int) {
	heading("resource indexer")
	detail("root", root)
	if interval > 0 {
		detail("update every", interval)
	} else {
		detail("update every", "never (manual updates only)")
	}
	detail("scan workers", workers)
}

func LogIndexerStarted() {
	done("indexer running, initial build in progress")
}

// GetRoutes walks router and returns one entry per method. Routes without a
// method matcher are reported with Method "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var out []RouteInfo
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tmpl, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			out = append(out, RouteInfo{Method: m, Path: tmpl, Name: route.GetName()})
		}
		return nil
	})
	return out, err
}

// LogHTTPRoutes prints the routing table at debug level, grouped by prefix.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	heading("http routes")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("walking routes: %v", err)
		}
		keys, groups := groupRoutes(routes)
		logging.Debug("  %d routes in %d groups", len(routes), len(keys))
		for _, key := range keys {
			name := key
			if name == "" {
				name = "/"
			}
			logging.Debug("  %s", name)
			for _, r := range groups[key] {
				logging.Debug("    %-7s %s", r.Method, r.Path)
			}
		}
	}

	if logHealthChecks {
		detail("probe logging", "on")
	} else {
		detail("probe logging", "off (LOG_HEALTH_CHECKS=true to enable)")
	}
}

func groupRoutes(routes []RouteInfo) ([]string, map[string][]RouteInfo) {
	groups := make(map[string][]RouteInfo)
	for _, r := range routes {
		g := getRouteGroup(r.Path)
		groups[g] = append(groups[g], r)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, groups
}

// getRouteGroup maps "/api/index/stats" to "api/index" and "/health" to "health".
func getRouteGroup(path string) string {
	head, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if head != "api" || rest == "" {
		return head
	}
	sub, _, _ := strings.Cut(rest, "/")
	return "api/" + sub
}

func LogServerStarted(config ServerConfig) {
	heading("listening (ready in %v)", config.StartupDuration.Round(time.Millisecond))
	detail("api", fmt.Sprintf("http://0.0.0.0:%s/api", config.Port))
	if config.MetricsEnabled {
		detail("metrics", fmt.Sprintf("http://0.0.0.0:%s/metrics", config.MetricsPort))
	} else {
		detail("metrics", "disabled")
	}
	logging.Info(rule)
}

func LogShutdownInitiated(signal string) {
	heading("shutting down on %s", signal)
}

func LogShutdownStep(step string) {
	logging.Debug("  .. %s", step)
}

func LogShutdownStepComplete(step string) {
	done("%s", step)
}

func LogShutdownComplete() {
	done("bye")
}

func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	fmt.Println(rule)
	fmt.Printf("  resource-index %s (%s)\n", Version, Commit)
	fmt.Println(rule)
	detail("built", BuildTime)
	detail("started", time.Now().Format(time.RFC3339))
}

func logSystemInfo() {
	heading("runtime")
	detail("go", runtime.Version())
	detail("platform", runtime.GOOS+"/"+runtime.GOARCH)
	procs, cpus := runtime.GOMAXPROCS(0), runtime.NumCPU()
	if procs < cpus {
		detail("cpus", fmt.Sprintf("%d (GOMAXPROCS %d, container limit)", cpus, procs))
	} else {
		detail("cpus", cpus)
	}

	if !logging.IsDebugEnabled() {
		return
	}
	logging.Debug("  goroutines: %d", runtime.NumGoroutine())
	if wd, err := os.Getwd(); err == nil {
		logging.Debug("  workdir:    %s", wd)
	}
	if host, err := os.Hostname(); err == nil {
		logging.Debug("  hostname:   %s", host)
	}
}
