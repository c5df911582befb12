// @title         wlmerge API
// @version       0.1.0
// @description   Published artifacts, run ledger and descriptor tools

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"wlmerge/internal/core/version"
	"wlmerge/internal/platform/config"
	"wlmerge/internal/platform/logger"
	phttp "wlmerge/internal/platform/net/http"
	"wlmerge/internal/platform/store"

	"wlmerge/internal/services/api"
)

func main() {
	version.SetService("wlmerge-api")

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	l := logger.Get()

	// postgres and clickhouse are optional; /runs answers 503 without postgres
	st, err := store.Open(context.Background(), store.FromConfig(root, "api"), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// http server (reads CORE_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run drains in flight requests for CORE_API_SHUTDOWN_GRACE once ctx ends
	if err := srv.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("http server stopped")
	}
}
