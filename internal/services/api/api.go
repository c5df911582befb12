// Package api provides the HTTP API for the application
package api

import (
	"wlmerge/internal/platform/config"
	"wlmerge/internal/platform/logger"
	phttp "wlmerge/internal/platform/net/http"
	"wlmerge/internal/platform/store"

	"wlmerge/internal/modkit"
	"wlmerge/internal/modkit/httpkit"
	"wlmerge/internal/modkit/module"
	"wlmerge/internal/modkit/swaggerkit"

	artifactsmod "wlmerge/internal/services/api/artifacts/module"
	descriptorsmod "wlmerge/internal/services/api/descriptors/module"
	metamod "wlmerge/internal/services/api/meta/module"
	runsmod "wlmerge/internal/services/api/runs/module"

	// merge owns the pipeline, the output directory and the ledger
	mergemod "wlmerge/internal/services/merge/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{Cfg: opt.Config}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}
	if opt.Store != nil {
		deps.PG, deps.CH = opt.Store.PG, opt.Store.CH
	}

	// the merge module reads the same CORE_MERGE_ and CORE_PUBLISH_ keys as the
	// runner binary, so the API classifies and serves exactly what a run produces
	merge := mergemod.New(deps)
	mp := module.MustPortsOf[mergemod.Ports](merge)
	module.Register(merge.Name(), mp)

	mods := []module.Module{
		metamod.New(deps, modkit.WithPorts(metamod.Ports{Pipeline: mp.Pipeline})),
		descriptorsmod.New(deps, modkit.WithPorts(descriptorsmod.Ports{Pipeline: mp.Pipeline})),
		artifactsmod.New(deps, modkit.WithPorts(artifactsmod.Ports{Artifacts: mp.Artifacts})),
		runsmod.New(deps, modkit.WithPorts(runsmod.Ports{Ledger: mp.Ledger})),
	}

	ac := opt.Config.Prefix("CORE_API_")
	stack := httpkit.Stack(httpkit.StackOptions{
		CORSOrigins: ac.MayCSV("CORS_ORIGINS", nil),
		Slow:        ac.MayDuration("SLOW_REQUEST", 0),
		Timeout:     ac.MayDuration("REQUEST_TIMEOUT", 0),
		Health:      "/api/v1/health",
	})

	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})

	// Swagger + profiler live outside the versioned stack
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
}
