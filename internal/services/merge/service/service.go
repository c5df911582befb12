// Package service provides the merge run implementation
package service

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"time"

	"wlmerge/internal/adapters/publish"
	"wlmerge/internal/core/artifact"
	"wlmerge/internal/core/merge"
	"wlmerge/internal/modkit/repokit"
	perr "wlmerge/internal/platform/errors"
	"wlmerge/internal/platform/logger"
	ptime "wlmerge/internal/platform/time"
	"wlmerge/internal/services/merge/domain"
	"wlmerge/internal/services/merge/guardrails"

	"github.com/google/uuid"
)

// Artifact names used in the ledger and in observations
const (
	ArtifactMerged    = "merged"
	ArtifactWhitelist = "wl"
	ArtifactSelected  = "selected"
)

// Config holds configuration options for the merge service
type Config struct {
	// Sources are fetched in this order; results keep it
	Sources []string
	// Workers bounds concurrent fetches; <=0 -> 1
	Workers int

	Timeouts guardrails.Timeouts

	// OutputDir is the directory artifacts are written to, relative to the
	// local store root and mirrored as is on git targets
	OutputDir     string
	MergedFile    string
	WhitelistFile string
	SelectedFile  string
	ReadmeFile    string

	// SaveExcluded writes excluded_merged.txt and excluded_wl.txt locally
	SaveExcluded bool

	// Zone is the display zone of header and README stamps
	Zone           string
	Announce       string
	UpdateInterval int

	// RawBase prefixes README links; empty skips the README
	RawBase string
	// ReadmeTargets names the publishers the README goes to
	ReadmeTargets []string

	// Ranges is the number of ranges the README mentions
	Ranges int
}

// Paths returns the repository relative path of each artifact
func (c Config) Paths() (merged, wl, selected string) {
	return path.Join(c.OutputDir, c.MergedFile),
		path.Join(c.OutputDir, c.WhitelistFile),
		path.Join(c.OutputDir, c.SelectedFile)
}

// Service implements domain.RunnerPort
type Service struct {
	// DB and Binder back the run ledger; a nil DB disables it
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.LedgerRepo]

	// Obs receives one row per published descriptor; nil disables it
	Obs domain.ObservationWriter

	Src    domain.Source
	Local  domain.LocalStore
	Remote []domain.Publisher
	Pipe   *merge.Pipeline
	Cfg    Config

	// Lease wraps a whole run when set
	Lease guardrails.LeaseFunc

	now func() time.Time
}

// New constructs the merge service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.LedgerRepo],
	obs domain.ObservationWriter,
	src domain.Source,
	local domain.LocalStore,
	remote []domain.Publisher,
	pipe *merge.Pipeline,
	cfg Config,
	lease guardrails.LeaseFunc,
) *Service {
	if src == nil {
		panic("merge.Service requires a non nil Source")
	}
	if local == nil {
		panic("merge.Service requires a non nil LocalStore")
	}
	if db != nil && binder == nil {
		panic("merge.Service requires a Repo binder when a DB is set")
	}
	if pipe == nil {
		pipe = merge.NewPipeline()
	}
	if cfg.MergedFile == "" {
		cfg.MergedFile = "merged.txt"
	}
	if cfg.WhitelistFile == "" {
		cfg.WhitelistFile = "wl.txt"
	}
	if cfg.SelectedFile == "" {
		cfg.SelectedFile = "selected.txt"
	}
	if cfg.ReadmeFile == "" {
		cfg.ReadmeFile = "README.md"
	}
	if cfg.Ranges == 0 && pipe.Ranges != nil {
		cfg.Ranges = pipe.Ranges.Len()
	}
	return &Service{
		DB: db, Binder: binder, Obs: obs,
		Src: src, Local: local, Remote: remote,
		Pipe:  pipe,
		Cfg:   cfg,
		Lease: lease,
		now:   ptime.Clock,
	}
}

// Run implements domain.RunnerPort. It returns an EmptyResult error and
// writes nothing when no source produced a descriptor
func (s *Service) Run(ctx context.Context) (domain.Report, error) {
	if s.Lease == nil {
		return s.run(ctx)
	}
	var rep domain.Report
	err := s.Lease(ctx, func(ctx context.Context) error {
		var e error
		rep, e = s.run(ctx)
		return e
	})
	if errors.Is(err, guardrails.ErrLeaseHeld) {
		logger.C(ctx).Warn().Msg("merge: another run holds the lease, skipping")
		return rep, perr.Wrapf(err, perr.ErrorCodeConflict, "merge run skipped")
	}
	return rep, err
}

func (s *Service) run(ctx context.Context) (rep domain.Report, retErr error) {
	rep = domain.Report{
		RunID:     uuid.NewString(),
		Status:    domain.StatusRunning,
		StartedAt: s.now().UTC(),
		Sources:   make([]domain.SourceResult, len(s.Cfg.Sources)),
	}
	ctx = logger.WithRun(ctx, rep.RunID)
	runCtx, cancel := guardrails.WithRun(ctx, s.Cfg.Timeouts)
	defer cancel()

	s.ledger(runCtx, "start run", func(r domain.LedgerRepo) error { return r.StartRun(runCtx, rep) })
	defer func() {
		rep.FinishedAt = s.now().UTC()
		rep.Err = retErr
		switch {
		case perr.IsCode(retErr, perr.ErrorCodeEmptyResult):
			rep.Status = domain.StatusEmpty
		case retErr != nil:
			rep.Status = domain.StatusError
		default:
			rep.Status = domain.StatusOK
		}
		// the run context may be spent; the ledger still gets the final row
		fin := context.WithoutCancel(ctx)
		s.ledger(fin, "finish run", func(r domain.LedgerRepo) error { return r.FinishRun(fin, rep) })
		logReport(ctx, rep)
	}()

	rep.Sources = s.fetchAll(runCtx, s.Cfg.Sources)
	s.ledger(runCtx, "record sources", func(r domain.LedgerRepo) error {
		return r.InsertSources(runCtx, rep.RunID, rep.Sources)
	})

	var fromURLs []string
	for _, sr := range rep.Sources {
		fromURLs = append(fromURLs, sr.Lines...)
	}
	rep.FromURLs = len(fromURLs)

	stamp := ptime.In(s.now(), s.Cfg.Zone)
	cur, err := s.curate(stamp)
	if err != nil {
		return rep, err
	}
	rep.CuratedFound = cur.found
	rep.FromCurated = len(cur.lines)
	rep.CuratedDuplicates = cur.dups

	// curated entries alone are enough for a run
	if len(fromURLs)+len(cur.lines) == 0 {
		if err := runCtx.Err(); err != nil {
			return rep, perr.Wrapf(err, perr.ErrorCodeUnavailable, "merge run interrupted")
		}
		return rep, perr.EmptyResultf("no descriptors from %d sources and no curated entries", len(rep.Sources))
	}

	batch := append(fromURLs, cur.lines...)
	res := s.Pipe.Run(batch)
	rep.Unique, rep.Duplicates = res.Unique, res.Duplicates
	rep.Merged, rep.Whitelist = len(res.Merged), len(res.Whitelist)
	rep.ExcludedMerged = res.ExcludedMerged.Excluded
	rep.ExcludedWhitelist = res.ExcludedWhitelist.Excluded
	rep.ExcludeStats = mergeStats(res.ExcludedMerged.Stats, res.ExcludedWhitelist.Stats)

	files := s.files(res, cur, stamp)
	pubCtx, pubCancel := guardrails.ForPublish(runCtx, s.Cfg.Timeouts)
	targets := append([]domain.Publisher{s.Local}, s.Remote...)
	rep.Published = publish.All(pubCtx, targets, files)
	pubCancel()

	// local writes are the product of the run, remote failures are not fatal
	for _, p := range rep.Published {
		if p.Err == nil {
			continue
		}
		logger.C(ctx).Error().Err(p.Err).Str("target", p.Target).Str("path", p.Path).Msg("merge: publish failed")
		if p.Target == s.Local.Name() && retErr == nil {
			retErr = perr.Wrapf(p.Err, perr.CodeOf(p.Err), "write %s", p.Path)
		}
	}

	s.ledger(runCtx, "record excluded", func(r domain.LedgerRepo) error {
		if err := r.InsertExcluded(runCtx, rep.RunID, ArtifactMerged, excludedRows(rep.ExcludedMerged)); err != nil {
			return err
		}
		return r.InsertExcluded(runCtx, rep.RunID, ArtifactWhitelist, excludedRows(rep.ExcludedWhitelist))
	})
	s.observe(runCtx, rep, res)

	return rep, retErr
}

// fetchAll runs one task per URL on a bounded pool. Each task owns its slot
// of the result slice, so no locking is needed and order is preserved
func (s *Service) fetchAll(ctx context.Context, urls []string) []domain.SourceResult {
	out := make([]domain.SourceResult, len(urls))
	w := max(s.Cfg.Workers, 1)
	sem := make(chan struct{}, w)
	var wg sync.WaitGroup

	for i, u := range urls {
		select {
		case <-ctx.Done():
			out[i] = domain.SourceResult{URL: u, Err: ctx.Err()}
			continue
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func() {
			defer func() { <-sem; wg.Done() }()
			out[i] = s.fetchOne(ctx, u)
		}()
	}
	wg.Wait()
	return out
}

func (s *Service) fetchOne(ctx context.Context, u string) domain.SourceResult {
	sctx, cancel := guardrails.ForSource(logger.WithSource(ctx, u), s.Cfg.Timeouts)
	defer cancel()

	start := time.Now()
	res := domain.SourceResult{URL: u}
	blob, err := s.Src.Fetch(sctx, u)
	res.Elapsed = time.Since(start)
	log := logger.C(sctx)
	if err != nil {
		res.Err = err
		log.Warn().Err(err).Dur("elapsed", res.Elapsed).Msg("merge: source failed")
		return res
	}
	res.Bytes, res.Attempt, res.Stale = len(blob.Data), blob.Attempt, blob.Stale
	res.Lines = extract(blob)
	log.Info().
		Int("lines", len(res.Lines)).
		Int("bytes", res.Bytes).
		Int("attempt", res.Attempt).
		Bool("stale", res.Stale).
		Int64("elapsed_ms", res.Elapsed.Milliseconds()).
		Msg("merge: source fetched")
	return res
}

// ledger runs fn in a transaction when the ledger is enabled. A transient
// failure is retried once; failures are logged and never fail the run
func (s *Service) ledger(ctx context.Context, what string, fn func(domain.LedgerRepo) error) {
	if s.DB == nil {
		return
	}
	dbCtx, cancel := guardrails.ForDB(ctx, s.Cfg.Timeouts)
	defer cancel()
	tx := func() error {
		return repokit.InTx(dbCtx, s.DB, s.Binder, fn)
	}
	err := tx()
	if err != nil && perr.Retryable(err) && dbCtx.Err() == nil {
		err = tx()
	}
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("op", what).Msg("merge: ledger write failed")
	}
}

func (s *Service) files(res merge.Result, cur curated, stamp time.Time) []publish.File {
	mergedPath, wlPath, selectedPath := s.Cfg.Paths()
	head := func(title string) artifact.Header {
		return artifact.Header{
			Title:          title,
			UpdateInterval: s.Cfg.UpdateInterval,
			Announce:       s.Cfg.Announce,
			UpdatedAt:      stamp,
		}
	}

	files := []publish.File{
		{Path: mergedPath, Content: artifact.Render(head(artifact.TitleAll), res.Merged)},
		{Path: wlPath, Content: artifact.Render(head(artifact.TitleWhitelist), res.Whitelist)},
	}
	if cur.found && len(cur.lines) > 0 {
		files = append(files, publish.File{Path: selectedPath, Content: cur.content})
	}

	if s.Cfg.SaveExcluded {
		local := []string{s.Local.Name()}
		files = append(files,
			publish.File{Path: path.Join(s.Cfg.OutputDir, "excluded_merged.txt"), Content: joinLines(res.ExcludedMerged.Lines()), Targets: local},
			publish.File{Path: path.Join(s.Cfg.OutputDir, "excluded_wl.txt"), Content: joinLines(res.ExcludedWhitelist.Lines()), Targets: local},
		)
	}

	if s.Cfg.RawBase != "" && len(s.Cfg.ReadmeTargets) > 0 {
		selected := -1
		if cur.found {
			selected = len(cur.lines)
		}
		files = append(files, publish.File{
			Path: s.Cfg.ReadmeFile,
			Content: publish.RenderReadme(publish.Status{
				RawBase:       strings.TrimRight(s.Cfg.RawBase, "/"),
				MergedPath:    mergedPath,
				WhitelistPath: wlPath,
				SelectedPath:  selectedPath,
				Sources:       len(s.Cfg.Sources),
				Ranges:        s.Cfg.Ranges,
				Merged:        len(res.Merged),
				Whitelist:     len(res.Whitelist),
				Selected:      selected,
				UpdatedAt:     stamp,
			}),
			Targets: s.Cfg.ReadmeTargets,
		})
	}
	return files
}

func joinLines(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// Prepare creates the ledger schema and the observations table for the
// stores that are configured
func (s *Service) Prepare(ctx context.Context) error {
	var errs []error
	if s.DB != nil {
		if err := repokit.InTx(ctx, s.DB, s.Binder, func(r domain.LedgerRepo) error { return r.EnsureSchema(ctx) }); err != nil {
			errs = append(errs, perr.Wrapf(err, perr.ErrorCodeDB, "ledger schema"))
		}
	}
	if s.Obs != nil {
		if err := s.Obs.EnsureTable(ctx); err != nil {
			errs = append(errs, perr.Wrapf(err, perr.ErrorCodeDB, "observations table"))
		}
	}
	return errors.Join(errs...)
}
