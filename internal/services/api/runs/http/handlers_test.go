// internal/services/api/runs/http/handlers_test.go
package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	phttp "wlmerge/internal/platform/net/http"
	"wlmerge/internal/services/merge/domain"
)

type fakeLedger struct {
	limit int
	runs  []domain.RunSummary
}

func (f *fakeLedger) RecentRuns(_ context.Context, limit int) ([]domain.RunSummary, error) {
	f.limit = limit
	return f.runs, nil
}

func get(l domain.LedgerPort, path string) *httptest.ResponseRecorder {
	mux := chi.NewRouter()
	phttp.AdaptChi(mux).Route("/runs", func(r phttp.Router) { Register(r, l) })
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, path, nil))
	return rec
}

func TestRecent_PassesLimit(t *testing.T) {
	t.Parallel()

	l := &fakeLedger{runs: []domain.RunSummary{{ID: "r1", Status: "ok", StartedAt: time.Unix(0, 0).UTC(), Merged: 7}}}
	rec := get(l, "/runs/?limit=5")
	if rec.Code != stdhttp.StatusOK || l.limit != 5 {
		t.Fatalf("status %d limit %d", rec.Code, l.limit)
	}
	var env struct {
		Data []domain.RunSummary `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(env.Data) != 1 || env.Data[0].ID != "r1" || env.Data[0].Merged != 7 {
		t.Fatalf("data %+v", env.Data)
	}
}

func TestRecent_DefaultLimitAndEmptyList(t *testing.T) {
	t.Parallel()

	l := &fakeLedger{}
	rec := get(l, "/runs/")
	if rec.Code != stdhttp.StatusOK || l.limit != 0 {
		t.Fatalf("status %d limit %d", rec.Code, l.limit)
	}
	var env map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if data, ok := env["data"].([]any); !ok || len(data) != 0 {
		t.Fatalf("want an empty array, got %s", rec.Body.String())
	}
}

func TestRecent_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		ledger domain.LedgerPort
		path   string
		want   int
	}{
		{"no ledger", nil, "/runs/", stdhttp.StatusServiceUnavailable},
		{"zero", &fakeLedger{}, "/runs/?limit=0", stdhttp.StatusBadRequest},
		{"too big", &fakeLedger{}, "/runs/?limit=201", stdhttp.StatusBadRequest},
		{"not a number", &fakeLedger{}, "/runs/?limit=ten", stdhttp.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := get(tc.ledger, tc.path); rec.Code != tc.want {
				t.Fatalf("status %d want %d: %s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}
