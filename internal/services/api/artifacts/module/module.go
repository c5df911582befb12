// Package module wires the artifact endpoints into the API
package module

import (
	"net/http"

	modkit "wlmerge/internal/modkit"
	"wlmerge/internal/modkit/httpkit"
	str "wlmerge/internal/platform/strings"

	ahttp "wlmerge/internal/services/api/artifacts/http"
	"wlmerge/internal/services/merge/domain"
)

// Ports declares the required merge port
type Ports struct {
	Artifacts domain.ArtifactPort
}

// Module implements the artifacts module
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	ports  Ports

	register func(httpkit.Router)
}

// New constructs the artifacts module. It panics without the Artifacts port
func New(_ modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(modkit.Defaults("artifacts", "/artifacts", opts)...)

	p, _ := b.Ports.(Ports)
	if p.Artifacts == nil {
		panic("artifacts module requires the Artifacts port from the merge module")
	}
	return &Module{
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		ports:  p,
		register: func(r httpkit.Router) {
			ahttp.Register(r, p.Artifacts)
			b.Register(r)
		},
	}
}

func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, str.MustPrefix(m.prefix), m.mws, m.register)
}

func (m *Module) Name() string { return str.MustString(m.name, "artifacts module name") }

func (m *Module) Ports() any { return m.ports }
