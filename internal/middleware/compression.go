package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"
	"sync"
)

// CompressionConfig controls the gzip middleware.
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, worth compressing.
	MinSize int
	// Level is passed to gzip.NewWriterLevel.
	Level int
	// CompressibleTypes are media types, without parameters, eligible for gzip.
	CompressibleTypes []string
}

// DefaultCompressionConfig favours speed; path listings and update diffs
// are large but highly repetitive.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:           1024,
		Level:             gzip.BestSpeed,
		CompressibleTypes: []string{"application/json", "application/x-ndjson", "text/plain"},
	}
}

// Compression gzips eligible responses for clients that send
// Accept-Encoding: gzip. Bodies are held back until MinSize bytes arrive
// or the handler returns, whichever comes first.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	pool := &sync.Pool{New: func() any {
		zw, err := gzip.NewWriterLevel(io.Discard, config.Level)
		if err != nil {
			zw = gzip.NewWriter(io.Discard)
		}
		return zw
	}}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead || !acceptsGzip(r) {
				next.ServeHTTP(w, r)
				return
			}
			cw := &compressWriter{ResponseWriter: w, config: config, pool: pool, status: http.StatusOK}
			defer cw.finish()
			next.ServeHTTP(cw, r)
		})
	}
}

func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		coding, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(coding, "gzip") {
			return true
		}
	}
	return false
}

// compressWriter is pending until the first decision, then either
// passthrough (zw nil) or gzip.
type compressWriter struct {
	http.ResponseWriter
	config  CompressionConfig
	pool    *sync.Pool
	pending bytes.Buffer
	status  int
	decided bool
	zw      *gzip.Writer
}

func (c *compressWriter) WriteHeader(code int) {
	if !c.decided {
		c.status = code
	}
}

func (c *compressWriter) Write(p []byte) (int, error) {
	if c.decided {
		if c.zw != nil {
			return c.zw.Write(p)
		}
		return c.ResponseWriter.Write(p)
	}
	c.pending.Write(p)
	if c.pending.Len() >= c.config.MinSize {
		if err := c.decide(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (c *compressWriter) eligible() bool {
	h := c.Header()
	if c.pending.Len() < c.config.MinSize || h.Get("Content-Encoding") != "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	return err == nil && slices.Contains(c.config.CompressibleTypes, mt)
}

func (c *compressWriter) decide() error {
	if c.decided {
		return nil
	}
	c.decided = true

	if c.eligible() {
		h := c.Header()
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
		c.zw = c.pool.Get().(*gzip.Writer)
		c.zw.Reset(c.ResponseWriter)
	}

	c.ResponseWriter.WriteHeader(c.status)
	var dst io.Writer = c.ResponseWriter
	if c.zw != nil {
		dst = c.zw
	}
	_, err := c.pending.WriteTo(dst)
	return err
}

// finish flushes whatever is still pending and returns the gzip writer to
// the pool.
func (c *compressWriter) finish() error {
	if err := c.decide(); err != nil {
		return err
	}
	if c.zw == nil {
		return nil
	}
	err := c.zw.Close()
	c.pool.Put(c.zw)
	c.zw = nil
	return err
}

func (c *compressWriter) Flush() {
	_ = c.decide()
	if c.zw != nil {
		_ = c.zw.Flush()
	}
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
