// Package swaggerkit serves the OpenAPI document and Swagger UI under /api/docs
package swaggerkit

import (
	"bytes"
	_ "embed"
	"net/http"
	"sync"

	"wlmerge/internal/core/version"
	phttp "wlmerge/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.json
var openapi []byte

var (
	docOnce sync.Once
	doc     []byte
)

// Doc returns the document with the running build's version filled in
func Doc() []byte {
	docOnce.Do(func() {
		doc = bytes.ReplaceAll(openapi, []byte("{{VERSION}}"), []byte(version.Info().Version))
	})
	return doc
}

// Mount adds /api/docs when enabled
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(Doc())
	})
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/api/docs/doc.json"),
		httpSwagger.DocExpansion("list"),
	))
}
