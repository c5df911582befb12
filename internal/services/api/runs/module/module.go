// Package module wires the run ledger endpoints into the API
package module

import (
	"net/http"

	modkit "wlmerge/internal/modkit"
	"wlmerge/internal/modkit/httpkit"
	str "wlmerge/internal/platform/strings"

	rhttp "wlmerge/internal/services/api/runs/http"
	"wlmerge/internal/services/merge/domain"
)

// Ports injects the merge ledger; nil when postgres is off
type Ports struct {
	Ledger domain.LedgerPort
}

// Module implements the runs module
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	ports  Ports

	register func(httpkit.Router)
}

// New constructs the runs module
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(modkit.Defaults("runs", "/runs", opts)...)

	var ledger domain.LedgerPort
	if p, ok := b.Ports.(Ports); ok {
		ledger = p.Ledger
	}
	return &Module{
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		ports:  Ports{Ledger: ledger},
		register: func(r httpkit.Router) {
			rhttp.Register(r, ledger)
			b.Register(r)
		},
	}
}

func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, str.MustPrefix(m.prefix), m.mws, m.register)
}

func (m *Module) Name() string { return str.MustString(m.name, "runs module name") }

// Ports re-exports the ledger the routes read
func (m *Module) Ports() any { return m.ports }
