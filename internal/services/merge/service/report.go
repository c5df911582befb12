package service

import (
	"context"

	"wlmerge/internal/core/canonkey"
	"wlmerge/internal/core/descriptor"
	"wlmerge/internal/core/exclude"
	"wlmerge/internal/core/merge"
	"wlmerge/internal/platform/logger"
	"wlmerge/internal/services/merge/domain"
	"wlmerge/internal/services/merge/guardrails"
)

// observe writes one row per published descriptor. Failures are logged only
func (s *Service) observe(ctx context.Context, rep domain.Report, res merge.Result) {
	if s.Obs == nil {
		return
	}
	obs := s.observations(rep, res)
	if len(obs) == 0 {
		return
	}
	dbCtx, cancel := guardrails.ForDB(ctx, s.Cfg.Timeouts)
	defer cancel()
	if err := s.Obs.Write(dbCtx, obs); err != nil {
		logger.C(ctx).Warn().Err(err).Int("rows", len(obs)).Msg("merge: observations write failed")
	}
}

func (s *Service) observations(rep domain.Report, res merge.Result) []domain.Observation {
	ranges := s.Pipe.Ranges
	at := s.now().UTC()
	out := make([]domain.Observation, 0, len(res.Merged)+len(res.Whitelist))
	add := func(art string, lines []string) {
		for i, l := range lines {
			d, _ := descriptor.Parse(l)
			o := domain.Observation{
				RunID:      rep.RunID,
				ObservedAt: at,
				Artifact:   art,
				Ordinal:    i + 1,
				Scheme:     d.Scheme.String(),
				Key:        canonkey.Of(d),
			}
			if ep, ok := d.Endpoint(); ok {
				o.Host, o.Port = ep.Host, ep.Port
				if ranges != nil {
					o.Label, o.Whitelisted = ranges.Classify(ep.Host)
				}
			}
			out = append(out, o)
		}
	}
	add(ArtifactMerged, res.Merged)
	add(ArtifactWhitelist, res.Whitelist)
	return out
}

// mergeStats sums per reason counters of both outputs, first seen order
func mergeStats(parts ...[]exclude.Stat) []exclude.Stat {
	var out []exclude.Stat
	idx := map[string]int{}
	for _, p := range parts {
		for _, st := range p {
			if i, ok := idx[st.Reason]; ok {
				out[i].Count += st.Count
				continue
			}
			idx[st.Reason] = len(out)
			out = append(out, st)
		}
	}
	return out
}

func excludedRows(xs []exclude.Excluded) []domain.ExcludedRow {
	out := make([]domain.ExcludedRow, 0, len(xs))
	for _, x := range xs {
		out = append(out, domain.ExcludedRow{Line: x.Line, Reason: x.Reason})
	}
	return out
}

// logReport emits the run summary as one structured event plus one event per
// failed source
func logReport(ctx context.Context, rep domain.Report) {
	log := logger.C(ctx)
	for _, sr := range rep.Sources {
		if sr.Err != nil {
			log.Debug().Str("url", sr.URL).Err(sr.Err).Msg("merge: source without lines")
		}
	}

	reasons := map[string]int{}
	for _, st := range rep.ExcludeStats {
		reasons[st.Reason] = st.Count
	}

	published := map[string]string{}
	for _, p := range rep.Published {
		outcome := p.Outcome.String()
		if p.Err != nil {
			outcome = "error"
		}
		published[p.Target+":"+p.Path] = outcome
	}

	ev := log.Info()
	if rep.Err != nil {
		ev = log.Error().Err(rep.Err)
	}
	ev.
		Str("status", rep.Status).
		Int("sources", len(rep.Sources)).
		Int("sources_ok", rep.SourcesOK()).
		Int("from_urls", rep.FromURLs).
		Int("from_curated", rep.FromCurated).
		Int("unique", rep.Unique).
		Int("duplicates", rep.Duplicates).
		Int("excluded", rep.Excluded()).
		Int("merged", rep.Merged).
		Int("whitelist", rep.Whitelist).
		Interface("exclude_reasons", reasons).
		Interface("published", published).
		Int64("elapsed_ms", rep.FinishedAt.Sub(rep.StartedAt).Milliseconds()).
		Msg("merge: run finished")
}
