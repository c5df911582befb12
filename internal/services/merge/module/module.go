// Package module provides the merge module implementation
package module

import (
	"strings"

	"wlmerge/internal/modkit"
	"wlmerge/internal/modkit/httpkit"
	"wlmerge/internal/modkit/repokit"

	"wlmerge/internal/adapters/ingest/sources"
	"wlmerge/internal/adapters/publish"
	"wlmerge/internal/core/annotate"
	"wlmerge/internal/core/exclude"
	"wlmerge/internal/core/merge"
	"wlmerge/internal/core/netrange"
	"wlmerge/internal/services/merge/domain"
	"wlmerge/internal/services/merge/guardrails"
	"wlmerge/internal/services/merge/repo"
	"wlmerge/internal/services/merge/service"
)

// Ports defines the merge module ports
type Ports struct {
	Runner    domain.RunnerPort
	Artifacts domain.ArtifactPort
	// Ledger is nil when postgres is not configured
	Ledger domain.LedgerPort
	// Pipeline is the configured classifier and filter set, read only
	Pipeline *merge.Pipeline
}

// Module implements the merge module
type Module struct {
	deps  modkit.Deps
	ports Ports
	svc   *service.Service
	opts  Options
}

// New constructs the merge module. It wires the fetcher, the publishers,
// the optional stores and the service from deps.Cfg. It does not mount routes.
// Misconfiguration (bad range file, bad proxy, bad S3 endpoint) panics through
// the logger like the rest of the config layer
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)
	log := deps.Log.With().Str("module", "merge").Logger()

	ranges := netrange.Default()
	if opts.RangesFile != "" {
		t, err := netrange.LoadFile(opts.RangesFile)
		if err != nil {
			log.Panic().Err(err).Str("file", opts.RangesFile).Msg("merge: range file")
		}
		ranges = t
	}
	for _, sh := range ranges.Shadowed() {
		log.Warn().Str("range", sh.Range.Prefix.String()).Str("by", sh.By.Prefix.String()).Msg("merge: range shadowed by an earlier one")
	}

	pipe := &merge.Pipeline{
		Ranges:         ranges,
		Excluder:       exclude.New(opts.Exclude, opts.CaseSensitive),
		Annotator:      annotate.New(opts.ChannelTag),
		PriorityMarker: opts.PriorityMarker,
		Thanks:         merge.DefaultThanks,
	}

	fetcher, err := sources.NewFetcher(sources.Options{
		Timeout:   opts.FetchTimeout,
		UserAgent: opts.UserAgent,
		MaxBody:   opts.MaxBody,
		SOCKS5:    opts.SOCKS5,
		Retries:   opts.Retries,
		RetryBase: opts.RetryBase,
	})
	if err != nil {
		log.Panic().Err(err).Msg("merge: fetcher")
	}
	var src domain.Source = fetcher
	if opts.CacheDir != "" {
		cache, err := sources.NewCache(opts.CacheDir, opts.CacheMaxAge)
		if err != nil {
			log.Panic().Err(err).Str("dir", opts.CacheDir).Msg("merge: cache dir")
		}
		src = sources.NewCachedFetcher(fetcher, cache)
	}

	remote, readmeTargets := remotes(opts.Publish)
	if objs, err := publish.NewObjects(publish.ObjectOptions{
		Endpoint:  opts.Publish.S3Endpoint,
		AccessKey: opts.Publish.S3AccessKey,
		SecretKey: opts.Publish.S3SecretKey,
		Bucket:    opts.Publish.S3Bucket,
		Region:    opts.Publish.S3Region,
		Prefix:    opts.Publish.S3Prefix,
	}); err != nil {
		log.Panic().Err(err).Msg("merge: s3 publisher")
	} else {
		remote = append(remote, objs)
	}

	// optional stores
	var (
		db     repokit.TxRunner
		binder repokit.Binder[domain.LedgerRepo]
		obs    domain.ObservationWriter
		lease  guardrails.LeaseFunc
	)
	if deps.PG != nil {
		db, binder = deps.PG, repo.NewPG()
		if opts.Leases {
			lease = guardrails.MakeRunLease(deps.PG, "merge", opts.LeaseTTL)
		}
	}
	if deps.CH != nil {
		obs = repo.NewCH(deps.CH, opts.ObservationChunk)
	}

	rawBase := opts.Publish.RawBase
	if !opts.Publish.Readme {
		rawBase = ""
	}

	svc := service.New(
		db, binder, obs,
		src,
		publish.NewDir(opts.Root),
		remote,
		pipe,
		service.Config{
			Sources: opts.Sources,
			Workers: opts.Workers,
			Timeouts: guardrails.Timeouts{
				Run:     opts.RunTimeout,
				Source:  opts.SourceTimeout,
				Publish: opts.PublishTO,
				DB:      opts.DBTimeout,
			},
			OutputDir:      opts.OutputDir,
			SaveExcluded:   opts.SaveExcluded,
			Zone:           opts.Zone,
			Announce:       opts.Announce,
			UpdateInterval: opts.UpdateInterval,
			RawBase:        rawBase,
			ReadmeTargets:  readmeTargets,
		},
		lease,
	)

	m := &Module{deps: deps, svc: svc, opts: opts}
	m.ports = Ports{Runner: svc, Artifacts: svc, Pipeline: pipe}
	if db != nil {
		m.ports.Ledger = ledger{db: db, binder: binder}
	}
	return m
}

// remotes builds the git targets that have a token and a repository
func remotes(p PublishOptions) ([]domain.Publisher, []string) {
	var out []domain.Publisher
	var names []string
	if owner, name, ok := strings.Cut(p.GitHubRepo, "/"); ok && p.GitHubToken != "" {
		g := publish.NewGit(publish.GitHubOptions(owner, name, p.GitHubBranch, p.GitHubToken))
		out = append(out, g)
		names = append(names, g.Name())
	}
	if owner, name, ok := strings.Cut(p.GitVerseRepo, "/"); ok && p.GitVerseToken != "" {
		o := publish.GitVerseOptions(owner, name, p.GitVerseBranch, p.GitVerseToken)
		if p.GitVerseAPI != "" {
			o.BaseURL = p.GitVerseAPI
		}
		out = append(out, publish.NewGit(o))
	}
	return out, names
}

// Name returns the module name
func (m *Module) Name() string { return "merge" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Prefix returns the module prefix (none)
func (m *Module) Prefix() string { return "" }

// MountRoutes is a no-op; the API serves merge data through its own modules
func (m *Module) MountRoutes(_ httpkit.Router) {}

// Service exposes the wired service to the binary (Prepare, Run)
func (m *Module) Service() *service.Service { return m.svc }

// Options returns the options the module was built with
func (m *Module) Options() Options { return m.opts }
