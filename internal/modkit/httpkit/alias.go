// Package httpkit is the HTTP surface modules build against. It re-exports
// the platform router and envelope so handlers never import chi
package httpkit

import (
	"net/http"

	phttp "wlmerge/internal/platform/net/http"
)

type (
	// Router is the platform routing seam
	Router = phttp.Router
	// Handler is the platform handler shape
	Handler = phttp.Handler
	// Envelope documents response bodies in swagger annotations
	Envelope = phttp.Envelope
	// Response carries a non 200 success status
	Response = phttp.Response
)

// Call adapts a handler that reads no body
func Call(fn func(*http.Request) (any, error)) Handler { return phttp.Call(fn) }

// Text adapts a handler that returns a plain text body
func Text(fn func(*http.Request) ([]byte, error)) Handler { return phttp.Text(fn) }

// Param returns a path parameter such as {name}
func Param(r *http.Request, key string) string { return phttp.URLParam(r, key) }
