package service

import (
	"context"

	"wlmerge/internal/core/artifact"
	perr "wlmerge/internal/platform/errors"
	"wlmerge/internal/services/merge/domain"
)

// artifactPath maps a public artifact name to its path in the output directory
func (s *Service) artifactPath(name string) (string, bool) {
	merged, wl, selected := s.Cfg.Paths()
	switch name {
	case ArtifactMerged:
		return merged, true
	case ArtifactWhitelist:
		return wl, true
	case ArtifactSelected:
		return selected, true
	}
	return "", false
}

// Artifact implements domain.ArtifactPort
func (s *Service) Artifact(_ context.Context, name string) ([]byte, error) {
	p, ok := s.artifactPath(name)
	if !ok {
		return nil, perr.NotFoundf("unknown artifact %q", name)
	}
	b, err := s.Local.Read(p)
	if err != nil {
		return nil, perr.Wrapf(err, perr.CodeOf(err), "read %s", p)
	}
	if b == nil {
		return nil, perr.NotFoundf("artifact %q not published yet", name)
	}
	return b, nil
}

// Artifacts implements domain.ArtifactPort
func (s *Service) Artifacts(ctx context.Context) ([]domain.ArtifactInfo, error) {
	names := []string{ArtifactMerged, ArtifactWhitelist, ArtifactSelected}
	out := make([]domain.ArtifactInfo, 0, len(names))
	for _, n := range names {
		p, _ := s.artifactPath(n)
		info := domain.ArtifactInfo{Name: n, Path: p}
		b, err := s.Local.Read(p)
		if err != nil {
			return nil, perr.Wrapf(err, perr.CodeOf(err), "read %s", p)
		}
		if b != nil {
			info.Present = true
			info.Bytes = len(b)
			info.Descriptors = len(artifact.Body(b))
			info.Updated, _ = artifact.Stamp(b)
		}
		out = append(out, info)
	}
	return out, ctx.Err()
}
