// Package middleware collects the HTTP middleware the API mounts: chi and
// go-chi/cors adapters plus access logging and panic recovery
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// Middleware is the stdlib middleware shape
type Middleware = func(http.Handler) http.Handler

// RequestID propagates X-Request-Id or generates one
func RequestID() Middleware { return chimw.RequestID }

// RealIP trusts X-Forwarded-For and X-Real-IP for RemoteAddr
func RealIP() Middleware { return chimw.RealIP }

// NoCache marks responses as not cacheable; artifacts change every run
func NoCache() Middleware { return chimw.NoCache }

// StripSlashes routes /runs/ as /runs
func StripSlashes() Middleware { return chimw.StripSlashes }

// Heartbeat answers GET path with 200 before routing
func Heartbeat(path string) Middleware { return chimw.Heartbeat(path) }

// Timeout cancels the request context after d
func Timeout(d time.Duration) Middleware { return chimw.Timeout(d) }

// Compress gzips text and JSON responses at level
func Compress(level int) Middleware {
	return chimw.NewCompressor(level, "text/plain", "application/json").Handler
}

// CORSOptions narrows go-chi/cors to what the API configures
type CORSOptions struct {
	AllowedOrigins []string
	MaxAge         int
}

// CORS allows read access plus POST for the descriptor tools
func CORS(o CORSOptions) Middleware {
	origins := o.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return chicors.Handler(chicors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         o.MaxAge,
	})
}
