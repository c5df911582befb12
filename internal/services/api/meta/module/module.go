// Package module mounts the meta endpoints
package module

import (
	"net/http"
	"time"

	"wlmerge/internal/core/merge"
	modkit "wlmerge/internal/modkit"
	"wlmerge/internal/modkit/httpkit"
	str "wlmerge/internal/platform/strings"

	metahttp "wlmerge/internal/services/api/meta/http"
)

// Ports optionally injects the pipeline reported by /meta/pipeline
type Ports struct {
	Pipeline *merge.Pipeline
}

// Module serves liveness, readiness and build information
type Module struct {
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler
	ports  Ports

	register func(httpkit.Router)
}

// New builds the module; the start time is taken now
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(modkit.Defaults("meta", "/meta", opts)...)

	var p Ports
	if in, ok := b.Ports.(Ports); ok {
		p = in
	}
	d := metahttp.Deps{
		ServiceName: "wlmerge-api",
		StartedAt:   time.Now(),
		PG:          deps.PG,
		CH:          deps.CH,
		Pipeline:    p.Pipeline,
	}
	return &Module{
		name:   b.Name,
		prefix: b.Prefix,
		mws:    b.Mw,
		ports:  p,
		register: func(r httpkit.Router) {
			metahttp.Register(r, d)
			b.Register(r)
		},
	}
}

func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, str.MustPrefix(m.prefix), m.mws, m.register)
}

func (m *Module) Name() string { return str.MustString(m.name, "meta module name") }

// Ports returns what the module was built with
func (m *Module) Ports() any { return m.ports }
