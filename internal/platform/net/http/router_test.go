package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func header(name string) func(stdhttp.Handler) stdhttp.Handler {
	return func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
			w.Header().Add("X-Seen", name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestAdaptChi_RouteUseAndParams(t *testing.T) {
	t.Parallel()

	r := AdaptChi(chi.NewRouter())
	r.Use(header("root"))
	r.Route("/api", func(api Router) {
		api.Use(header("api"))
		api.Get("/artifacts/{name}", func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
			_, _ = w.Write([]byte(URLParam(req, "name")))
		})
		api.Post("/check", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
			w.WriteHeader(stdhttp.StatusAccepted)
		})
		api.Handle("/raw/*", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
			w.WriteHeader(stdhttp.StatusTeapot)
		}))
	})

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/api/artifacts/wl", nil))
	if rec.Body.String() != "wl" {
		t.Fatalf("param %q", rec.Body.String())
	}
	if got := rec.Header().Values("X-Seen"); len(got) != 2 || got[0] != "root" || got[1] != "api" {
		t.Fatalf("middleware order %v", got)
	}

	rec = httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("POST", "/api/check", nil))
	if rec.Code != stdhttp.StatusAccepted {
		t.Fatalf("post %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/api/raw/a/b", nil))
	if rec.Code != stdhttp.StatusTeapot {
		t.Fatalf("handle %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("POST", "/api/artifacts/wl", nil))
	if rec.Code != stdhttp.StatusMethodNotAllowed {
		t.Fatalf("method %d", rec.Code)
	}
}
