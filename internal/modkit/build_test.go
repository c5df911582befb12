// internal/modkit/build_test.go
package modkit

import (
	"net/http"
	"testing"

	"wlmerge/internal/modkit/httpkit"
)

type ledgerPorts struct{ Limit int }

func TestBuild_DefaultsThenOverrides(t *testing.T) {
	b := Build(Defaults("runs", "/runs", []Option{WithPrefix("/ledger"), WithPorts(ledgerPorts{Limit: 5})})...)
	if b.Name != "runs" || b.Prefix != "/ledger" {
		t.Fatalf("built %+v", b)
	}
	if p, ok := b.Ports.(ledgerPorts); !ok || p.Limit != 5 {
		t.Fatalf("ports %#v", b.Ports)
	}
	if b.Register == nil {
		t.Fatalf("register must default to a no-op")
	}
	b.Register(nil)
}

func TestBuild_MiddlewareOrderAndCopy(t *testing.T) {
	var order []string
	mk := func(n string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			order = append(order, n)
			return next
		}
	}
	src := []func(http.Handler) http.Handler{mk("a")}
	b := Build(WithMiddlewares(src...), WithMiddlewares(mk("b")))
	if len(b.Mw) != 2 {
		t.Fatalf("mw %d", len(b.Mw))
	}
	for _, m := range b.Mw {
		m(nil)
	}
	if order[0] != "a" || order[1] != "b" {
		t.Fatalf("order %v", order)
	}
	src[0] = mk("z")
	b.Mw[0](nil)
	if order[2] != "a" {
		t.Fatalf("built slice must not alias caller slice")
	}
}

func TestBuild_Register(t *testing.T) {
	called := false
	b := Build(WithRegister(func(httpkit.Router) { called = true }))
	b.Register(nil)
	if !called {
		t.Fatalf("register not kept")
	}
}
