package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// LogLevel orders messages by severity; lower values are more verbose.
type LogLevel int32

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelTrace: "trace",
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

var (
	currentLevel atomic.Int32
	levelOnce    sync.Once
)

func initLevel() {
	levelOnce.Do(func() {
		currentLevel.Store(int32(levelFromEnv()))
	})
}

// levelFromEnv reads DEBUG first; any truthy value forces debug. Otherwise
// LOG_LEVEL is parsed and anything unrecognised means info.
func levelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}
	level, _ := ParseLevel(os.Getenv("LOG_LEVEL"))
	return level
}

// ParseLevel accepts the level names plus "warning". Unknown names return
// (LevelInfo, false).
func ParseLevel(s string) (LogLevel, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return LevelWarn, true
	}
	for l, name := range levelNames {
		if s == name {
			return LogLevel(l), true
		}
	}
	return LevelInfo, false
}

// SetLevel overrides whatever the environment said.
func SetLevel(level LogLevel) {
	levelOnce.Do(func() {})
	currentLevel.Store(int32(level))
}

func GetLevel() LogLevel {
	initLevel()
	return LogLevel(currentLevel.Load())
}

func IsDebugEnabled() bool { return GetLevel() <= LevelDebug }

func IsTraceEnabled() bool { return GetLevel() <= LevelTrace }

func (l LogLevel) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("unknown(%d)", l)
}

func logAt(l LogLevel, format string, args []interface{}) {
	if GetLevel() > l {
		return
	}
	log.Printf("["+strings.ToUpper(levelNames[l])+"] "+format, args...)
}

func Trace(format string, args ...interface{}) { logAt(LevelTrace, format, args) }

func Debug(format string, args ...interface{}) { logAt(LevelDebug, format, args) }

func Info(format string, args ...interface{}) { logAt(LevelInfo, format, args) }

func Warn(format string, args ...interface{}) { logAt(LevelWarn, format, args) }

func Error(format string, args ...interface{}) { logAt(LevelError, format, args) }

// Fatal logs regardless of level and exits with status 1.
func Fatal(format string, args ...interface{}) {
	log.Fatalf("[FATAL] "+format, args...)
}

// Printf and Println bypass level filtering.
func Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

func Println(args ...interface{}) {
	log.Println(args...)
}
