// internal/services/api/descriptors/http/handlers_test.go
package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"wlmerge/internal/core/exclude"
	"wlmerge/internal/core/merge"
	"wlmerge/internal/core/netrange"
	phttp "wlmerge/internal/platform/net/http"
	"wlmerge/internal/services/api/descriptors/service"
)

func testRouter() stdhttp.Handler {
	mux := chi.NewRouter()
	Register(phttp.AdaptChi(mux), service.New(&merge.Pipeline{
		Ranges:   netrange.New([]netrange.Range{{Prefix: netip.MustParsePrefix("1.2.3.0/24"), Label: "Lab"}}),
		Excluder: exclude.New(nil, false),
	}))
	return mux
}

func post(t *testing.T, h stdhttp.Handler, path, body string) (*httptest.ResponseRecorder, phttp.Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(stdhttp.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v (%s)", path, err, rec.Body.String())
	}
	return rec, env
}

func TestClassify_OK(t *testing.T) {
	t.Parallel()

	rec, env := post(t, testRouter(), "/classify", `{"ip":"1.2.3.4"}`)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	data, ok := env.Data.(map[string]any)
	if !ok || data["whitelisted"] != true || data["label"] != "Lab" {
		t.Fatalf("data %#v", env.Data)
	}
}

func TestClassify_Validation(t *testing.T) {
	t.Parallel()

	h := testRouter()
	for _, body := range []string{`{"ip":"999.1.1.1"}`, `{"ip":""}`, `{"ip":"1.2.3.4","x":1}`, ``} {
		rec, env := post(t, h, "/classify", body)
		if rec.Code != stdhttp.StatusBadRequest || env.Error == "" {
			t.Fatalf("%s: status %d body %s", body, rec.Code, rec.Body.String())
		}
	}
}

func TestInspect_MalformedIs422(t *testing.T) {
	t.Parallel()

	rec, _ := post(t, testRouter(), "/inspect", `{"line":"vless://u@1.2.3.4:99999#x"}`)
	if rec.Code != stdhttp.StatusUnprocessableEntity {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestInspect_OK(t *testing.T) {
	t.Parallel()

	rec, env := post(t, testRouter(), "/inspect", `{"line":"vless://u@1.2.3.4:443?sni=a.com#n"}`)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	data := env.Data.(map[string]any)
	if data["scheme"] != "vless" || data["port"] != float64(443) || data["server_name"] != "a.com" {
		t.Fatalf("data %#v", data)
	}

	rec, env = post(t, testRouter(), "/inspect", `{"line":"vless://u@1.2.3.4:443\ntrojan://p@h:443"}`)
	if rec.Code != stdhttp.StatusBadRequest || env.Error != "line must be a single line" {
		t.Fatalf("two lines: %d %q", rec.Code, env.Error)
	}
}

func TestCheck_OK(t *testing.T) {
	t.Parallel()

	rec, env := post(t, testRouter(), "/check", `{"lines":["vless://x@5.5.5.5:443#@01010101","trojan://p@h.example:443#ok"]}`)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	data := env.Data.(map[string]any)
	kept, _ := data["kept"].([]any)
	excluded, _ := data["excluded"].([]any)
	if len(kept) != 1 || len(excluded) != 1 {
		t.Fatalf("data %#v", data)
	}

	rec, _ = post(t, testRouter(), "/check", `{"lines":[]}`)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("empty batch status %d", rec.Code)
	}
}
