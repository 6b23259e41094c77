package middleware

import (
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig controls the access log middleware.
type LoggingConfig struct {
	SkipPaths       []string
	LogHealthChecks bool
	// Output receives the access log lines. Nil means log.Default().
	Output *log.Logger
}

func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:       []string{"/metrics"},
		LogHealthChecks: true,
	}
}

var probePaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

func (c LoggingConfig) skip(path string) bool {
	if hasAnyPrefix(path, c.SkipPaths) {
		return true
	}
	return probePaths[path] && !c.LogHealthChecks
}

// Logger writes one W3C extended-format line per request:
//
//	date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken sc(Content-Encoding) cs(User-Agent) cs(Referer)
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	out := config.Output
	if out == nil {
		out = log.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			began := time.Now()
			rec := newRecorder(w)
			next.ServeHTTP(rec, r)
			out.Println(accessLine(r, rec, time.Since(began), time.Now().UTC()))
		})
	}
}

func accessLine(r *http.Request, rec *recorder, took time.Duration, at time.Time) string {
	fields := []string{
		at.Format(time.DateOnly),
		at.Format(time.TimeOnly),
		sanitizeLogField(getClientIP(r)),
		sanitizeLogField(r.Method),
		sanitizeLogField(r.URL.Path),
		orDash(sanitizeLogField(r.URL.RawQuery)),
		strconv.Itoa(rec.status),
		strconv.FormatInt(rec.bytes, 10),
		strconv.FormatInt(took.Milliseconds(), 10),
		orDash(rec.Header().Get("Content-Encoding")),
		orDash(quoteField(sanitizeLogField(r.UserAgent()))),
		orDash(quoteField(sanitizeLogField(r.Referer()))),
	}
	return strings.Join(fields, " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// sanitizeLogField keeps request data from forging log lines. CR and LF
// become spaces and every other control character except tab is dropped.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r < 0x20 && r != '\t', r == 0x7f:
			return -1
		}
		return r
	}, s)
}

// quoteField wraps values containing whitespace or quotes in double
// quotes, doubling embedded quotes.
func quoteField(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
