package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"wlmerge/internal/core/version"
	"wlmerge/internal/modkit"
	"wlmerge/internal/modkit/module"
	"wlmerge/internal/platform/config"
	perr "wlmerge/internal/platform/errors"
	"wlmerge/internal/platform/logger"
	"wlmerge/internal/platform/store"

	mergemod "wlmerge/internal/services/merge/module"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

// publishEnv are the remote target credentials dropped by -local
var publishEnv = []string{
	"CORE_PUBLISH_GITHUB_TOKEN",
	"CORE_PUBLISH_GITVERSE_TOKEN",
	"CORE_PUBLISH_S3_ACCESS_KEY",
	"CORE_PUBLISH_S3_SECRET_KEY",
}

// skipped reports a run that did not start because another process holds
// the run lease
func skipped(err error) bool {
	return perr.IsCode(err, perr.ErrorCodeConflict)
}

func main() {
	var (
		fSources = flag.String("sources", "", "comma separated source URLs (default: built in list)")
		fWorkers = flag.Int("workers", 0, "concurrent fetches")
		fRoot    = flag.String("root", "", "repository root holding the output directory")
		fOut     = flag.String("out", "", "output directory relative to -root")
		fRanges  = flag.String("ranges", "", "YAML range table replacing the embedded one")
		fExclude = flag.String("exclude", "", "comma separated exclusion patterns (#remark, @address, /path, text)")
		fSOCKS5  = flag.String("socks5", "", "fetch through a SOCKS5 proxy host:port")
		fCache   = flag.String("cache-dir", "", "keep the last good copy of every source here")
		fLocal   = flag.Bool("local", false, "write the output directory only, skip remote targets")
		fEvery   = flag.Duration("every", 0, "repeat the run on this interval until interrupted")
	)
	flag.Parse()

	version.SetService("wlmerge")
	l := logger.Get()

	// Surface flags to FromConfig (CORE_MERGE_*)
	mustSetEnv("CORE_MERGE_SOURCES", *fSources)
	if *fWorkers > 0 {
		mustSetEnv("CORE_MERGE_WORKERS", strconv.Itoa(*fWorkers))
	}
	mustSetEnv("CORE_MERGE_ROOT", *fRoot)
	mustSetEnv("CORE_MERGE_OUTPUT_DIR", *fOut)
	mustSetEnv("CORE_MERGE_RANGES_FILE", *fRanges)
	mustSetEnv("CORE_MERGE_EXCLUDE", *fExclude)
	mustSetEnv("CORE_MERGE_SOCKS5", *fSOCKS5)
	mustSetEnv("CORE_MERGE_CACHE_DIR", *fCache)
	if *fLocal {
		for _, k := range publishEnv {
			_ = os.Unsetenv(k)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := config.New()
	st, err := store.Open(ctx, store.FromConfig(root, "merge"), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
		Log: *l,
	}

	mm := mergemod.New(deps)
	module.Register(mm.Name(), mm.Ports())

	// ledger tables are best effort like the ledger itself
	if err := mm.Service().Prepare(ctx); err != nil {
		l.Warn().Err(err).Msg("merge: schema preparation failed")
	}

	runner := module.MustPortsOf[mergemod.Ports](mm).Runner
	if *fEvery <= 0 {
		_, err := runner.Run(ctx)
		switch {
		case skipped(err):
			l.Info().Err(err).Msg("merge: run lease held elsewhere, exiting")
		case err != nil:
			l.Fatal().Err(err).Msg("merge run failed")
		}
		return
	}

	t := time.NewTicker(*fEvery)
	defer t.Stop()
	for {
		if _, err := runner.Run(ctx); skipped(err) {
			l.Info().Err(err).Msg("merge: run lease held elsewhere")
		} else if err != nil {
			l.Error().Err(err).Msg("merge run failed")
		}
		select {
		case <-ctx.Done():
			l.Info().Msg("merge: interrupted, exiting")
			return
		case <-t.C:
		}
	}
}
