package service

import (
	"time"

	"wlmerge/internal/core/artifact"
	"wlmerge/internal/core/normalize"
	perr "wlmerge/internal/platform/errors"
	"wlmerge/internal/services/merge/domain"
)

type curated struct {
	found   bool
	lines   []string
	dups    int
	content []byte
}

// curate reads the hand curated file from the local store, numbers its
// descriptors and renders the rewritten file. A missing file is not an error
func (s *Service) curate(stamp time.Time) (curated, error) {
	_, _, p := s.Cfg.Paths()
	b, err := s.Local.Read(p)
	if err != nil {
		return curated{}, perr.Wrapf(err, perr.CodeOf(err), "read %s", p)
	}
	if b == nil {
		return curated{}, nil
	}

	c := artifact.ParseCurated(normalize.Decode(b, ""))
	out := curated{found: true}
	if len(c.Lines) == 0 {
		return out, nil
	}
	out.lines, out.dups = s.Pipe.Curate(c.Lines)
	out.content = artifact.RenderCurated(artifact.Header{
		Title:          artifact.TitleSelected,
		UpdateInterval: s.Cfg.UpdateInterval,
		Announce:       s.Cfg.Announce,
		UpdatedAt:      stamp,
	}, c.Comments, out.lines)
	return out, nil
}

// extract turns a fetched body into candidate descriptor lines
func extract(b domain.Blob) []string {
	return normalize.Extract(normalize.Decode(b.Data, b.ContentType))
}
