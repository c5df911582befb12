package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"wlmerge/internal/platform/net/middleware"
)

// StackOptions tunes the API middleware stack
type StackOptions struct {
	// CORSOrigins defaults to any origin
	CORSOrigins []string
	// Slow requests log at warn, default 500ms
	Slow time.Duration
	// Timeout bounds a request, default 30s
	Timeout time.Duration
	// Health is the full request path the heartbeat answers, default /health
	Health string
}

// Stack returns the API middleware in mount order
func Stack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Slow <= 0 {
		o.Slow = 500 * time.Millisecond
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Health == "" {
		o.Health = "/health"
	}
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(o.Slow),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.CORSOrigins, MaxAge: 300}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat(o.Health),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
	}
}

// CommonStack is Stack with defaults
func CommonStack() []func(http.Handler) http.Handler { return Stack(StackOptions{}) }
