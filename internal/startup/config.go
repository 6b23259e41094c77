package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-ini/ini"

	"resource-index/internal/logging"
)

// Config holds all application configuration
type Config struct {
	RootDir         string
	DatabaseDir     string
	Port            string
	MetricsPort     string
	UpdateInterval  time.Duration
	ScanWorkers     int
	JournalKeep     int
	LogHealthChecks bool
	MetricsEnabled  bool

	// ConfigFile is the INI file the settings were overlaid from, if any.
	ConfigFile string

	// Derived paths
	DatabasePath string
}

// settings resolves a value from the environment first, then the optional
// INI file, then the default.
type settings struct {
	file *ini.File
}

func loadSettings(path string) (settings, error) {
	if path == "" {
		return settings{file: ini.Empty()}, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return settings{file: f}, nil
}

func (s settings) get(envKey, section, key, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	if sec := s.file.Section(section); sec.HasKey(key) {
		if value := sec.Key(key).String(); value != "" {
			return value
		}
	}
	return defaultValue
}

func (s settings) getBool(envKey, section, key string, defaultValue bool) bool {
	value := s.get(envKey, section, key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", envKey, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func (s settings) getInt(envKey, section, key string, defaultValue int) int {
	value := s.get(envKey, section, key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", envKey, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func (s settings) getDuration(envKey, section, key string, defaultValue time.Duration) time.Duration {
	value := s.get(envKey, section, key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid duration value for %s: %q, using default: %v", envKey, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// LoadConfig resolves the configuration, logs it, and prepares the
// database directory. The root is only checked: a missing root is a warning
// here and an unhealthy index later.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	config, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	config.log()

	if err := checkDirectory(config.RootDir, "root"); err != nil {
		logging.Warn("root %s: %v", config.RootDir, err)
	}
	if err := ensureDirectory(config.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory %s is not writable: %w", config.DatabaseDir, err)
	}
	done("database directory %s is writable", config.DatabaseDir)

	return config, nil
}

func (c *Config) log() {
	heading("configuration")
	if c.ConfigFile != "" {
		detail("CONFIG_FILE", c.ConfigFile)
	}
	detail("ROOT_DIR", c.RootDir)
	detail("DATABASE_DIR", c.DatabaseDir)
	detail("PORT", c.Port)
	detail("METRICS_PORT", c.MetricsPort+" ("+enabledString(c.MetricsEnabled)+")")
	if c.UpdateInterval > 0 {
		detail("UPDATE_INTERVAL", c.UpdateInterval)
	} else {
		detail("UPDATE_INTERVAL", "0 (periodic updates DISABLED)")
	}
	detail("SCAN_WORKERS", orDefault(c.ScanWorkers, "auto"))
	detail("JOURNAL_KEEP", orDefault(c.JournalKeep, "unlimited"))
	detail("LOG_HEALTH_CHECKS", c.LogHealthChecks)
	detail("LOG_LEVEL", logging.GetLevel())
}

// resolveConfig reads every setting without side effects on the filesystem.
func resolveConfig() (*Config, error) {
	configFile := os.Getenv("CONFIG_FILE")
	s, err := loadSettings(configFile)
	if err != nil {
		return nil, err
	}

	rootDir, err := filepath.Abs(s.get("ROOT_DIR", "index", "root", "/data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory path: %w", err)
	}

	databaseDir, err := filepath.Abs(s.get("DATABASE_DIR", "database", "dir", "/database"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	return &Config{
		RootDir:         rootDir,
		DatabaseDir:     databaseDir,
		Port:            s.get("PORT", "server", "port", "8080"),
		MetricsPort:     s.get("METRICS_PORT", "server", "metrics_port", "9090"),
		UpdateInterval:  s.getDuration("UPDATE_INTERVAL", "index", "update_interval", 5*time.Minute),
		ScanWorkers:     s.getInt("SCAN_WORKERS", "index", "scan_workers", 0),
		JournalKeep:     s.getInt("JOURNAL_KEEP", "database", "keep", 1000),
		LogHealthChecks: s.getBool("LOG_HEALTH_CHECKS", "server", "log_health_checks", true),
		MetricsEnabled:  s.getBool("METRICS_ENABLED", "server", "metrics_enabled", true),
		ConfigFile:      configFile,
		DatabasePath:    filepath.Join(databaseDir, "journal.db"),
	}, nil
}

// orDefault renders n, or zero as the given word.
func orDefault(n int, zero string) string {
	if n == 0 {
		return zero
	}
	return strconv.Itoa(n)
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// checkDirectory requires path to be an existing directory.
func checkDirectory(path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s path %s is not a directory", name, path)
	}
	logging.Debug("  %s directory %s ok", name, path)
	return nil
}

// ensureDirectory is checkDirectory that creates path when it is missing.
func ensureDirectory(path, name string) error {
	err := checkDirectory(path, name)
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", name, err)
	}
	logging.Debug("  created %s directory %s", name, path)
	return nil
}

func testWriteAccess(dir string) error {
	f, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(f.Name())
}
