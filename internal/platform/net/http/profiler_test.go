package http_test

import (
	"net/http/httptest"
	"testing"

	"wlmerge/internal/platform/config"
	phttp "wlmerge/internal/platform/net/http"
)

func TestMountProfiler(t *testing.T) {
	on := phttp.NewServer(config.New()).Router()
	phttp.MountProfiler(on, "/debug", true)
	rec := httptest.NewRecorder()
	on.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/debug/pprof/cmdline", nil))
	if rec.Code != 200 {
		t.Fatalf("enabled: %d", rec.Code)
	}

	off := phttp.NewServer(config.New()).Router()
	phttp.MountProfiler(off, "/debug", false)
	rec = httptest.NewRecorder()
	off.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/debug/pprof/cmdline", nil))
	if rec.Code != 404 {
		t.Fatalf("disabled: %d", rec.Code)
	}
}
