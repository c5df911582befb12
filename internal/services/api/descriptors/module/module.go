// Package module wires the descriptor tools into the API
package module

import (
	"net/http"

	"wlmerge/internal/core/merge"
	modkit "wlmerge/internal/modkit"
	"wlmerge/internal/modkit/httpkit"
	str "wlmerge/internal/platform/strings"

	dhttp "wlmerge/internal/services/api/descriptors/http"
	dsvc "wlmerge/internal/services/api/descriptors/service"
)

// Ports injects the run pipeline; without one the built in defaults are used
type Ports struct {
	Pipeline *merge.Pipeline
}

// Module implements the descriptors module
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler

	svc      dsvc.Service
	register func(httpkit.Router)
}

// New constructs the descriptors module
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(modkit.Defaults("descriptors", "/descriptors", opts)...)

	pipe := merge.NewPipeline()
	if p, ok := b.Ports.(Ports); ok && p.Pipeline != nil {
		pipe = p.Pipeline
	}
	m := &Module{name: b.Name, prefix: b.Prefix, mws: b.Mw, svc: dsvc.New(pipe)}
	m.register = func(r httpkit.Router) {
		dhttp.Register(r, m.svc)
		b.Register(r)
	}
	return m
}

func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, str.MustPrefix(m.prefix), m.mws, m.register)
}

func (m *Module) Name() string { return str.MustString(m.name, "descriptors module name") }

// Ports exposes the descriptor service
func (m *Module) Ports() any { return m.svc }
