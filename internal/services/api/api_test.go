package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wlmerge/internal/modkit/module"
	"wlmerge/internal/platform/config"
	phttp "wlmerge/internal/platform/net/http"
	kit "wlmerge/internal/platform/testkit"
	artmod "wlmerge/internal/services/api/artifacts/module"
	metamod "wlmerge/internal/services/api/meta/module"
	runsmod "wlmerge/internal/services/api/runs/module"

	"github.com/go-chi/chi/v5"
)

func mountAPI(t *testing.T) http.Handler {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "confs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "confs", "wl.txt"), []byte("vless://a@1.2.3.4:443#x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CORE_MERGE_ROOT", root)
	t.Setenv("CORE_API_CORS_ORIGINS", "https://wl.example")
	t.Cleanup(module.Reset)

	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), Options{Config: config.New(), EnableSwagger: true})
	return mux
}

func call(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Origin", "https://wl.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMount_Routes(t *testing.T) {
	h := mountAPI(t)

	cases := []struct {
		method, path, body string
		want               int
	}{
		{"GET", "/api/v1/health", "", http.StatusOK},
		{"GET", "/api/v1/meta/health", "", http.StatusOK},
		{"GET", "/api/v1/meta/version", "", http.StatusOK},
		{"GET", "/api/v1/meta/pipeline", "", http.StatusOK},
		{"GET", "/api/v1/artifacts", "", http.StatusOK},
		{"GET", "/api/v1/artifacts/wl", "", http.StatusOK},
		{"GET", "/api/v1/artifacts/nope", "", http.StatusNotFound},
		{"GET", "/api/v1/runs", "", http.StatusServiceUnavailable},
		{"POST", "/api/v1/descriptors/classify", `{"ip":"1.2.3.4"}`, http.StatusOK},
		{"POST", "/api/v1/descriptors/classify", `{"ip":"nope"}`, http.StatusBadRequest},
		{"GET", "/api/docs/doc.json", "", http.StatusOK},
	}
	for _, c := range cases {
		rec := call(h, c.method, c.path, c.body)
		if rec.Code != c.want {
			t.Fatalf("%s %s = %d want %d: %s", c.method, c.path, rec.Code, c.want, rec.Body.String())
		}
	}
}

func TestMount_EnvelopeAndStack(t *testing.T) {
	h := mountAPI(t)
	rec := call(h, "GET", "/api/v1/runs", "")

	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("envelope: %v", err)
	}
	if env.RequestID == "" || rec.Header().Get("X-Request-Id") != env.RequestID {
		t.Fatalf("request id header %q body %q", rec.Header().Get("X-Request-Id"), env.RequestID)
	}
	kit.MustContain(t, env.Error, "ledger is not configured")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://wl.example" {
		t.Fatalf("cors origin %q", got)
	}
	rp, ok := module.Lookup[runsmod.Ports]("runs")
	if !ok {
		t.Fatalf("runs module not registered")
	}
	if rp.Ledger != nil {
		t.Fatalf("ledger must be nil without postgres")
	}
	if ap, ok := module.Lookup[artmod.Ports]("artifacts"); !ok || ap.Artifacts == nil {
		t.Fatalf("artifacts ports %+v %v", ap, ok)
	}
	if mp, ok := module.Lookup[metamod.Ports]("meta"); !ok || mp.Pipeline == nil {
		t.Fatalf("meta ports %+v %v", mp, ok)
	}
}
