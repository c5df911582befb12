// Package service answers descriptor questions with the configured pipeline
package service

import (
	"context"
	"strings"

	"wlmerge/internal/core/canonkey"
	"wlmerge/internal/core/descriptor"
	"wlmerge/internal/core/exclude"
	"wlmerge/internal/core/merge"
	perr "wlmerge/internal/platform/errors"
	"wlmerge/internal/services/api/descriptors/domain"
)

// Service defines the descriptors service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the descriptors service
type Svc struct {
	num merge.Numberer
	exc *exclude.Excluder
}

// New constructs a descriptors service over a pipeline
func New(pipe *merge.Pipeline) *Svc {
	if pipe == nil {
		panic("descriptors.Service requires a non nil Pipeline")
	}
	exc := pipe.Excluder
	if exc == nil {
		exc = exclude.New(nil, false)
	}
	return &Svc{num: pipe.Numberer(), exc: exc}
}

// Classify reports the range containing an address
func (s *Svc) Classify(_ context.Context, in domain.ClassifyInput) (domain.ClassifyOutput, error) {
	ip := strings.TrimSpace(in.IP)
	label, ok := s.num.Ranges.Classify(ip)
	return domain.ClassifyOutput{
		IP:          ip,
		Whitelisted: ok,
		Label:       label,
		CIDR:        s.num.Ranges.CIDRText(ip),
	}, nil
}

// Inspect parses one line and reports its key, endpoint and classification
func (s *Svc) Inspect(_ context.Context, in domain.InspectInput) (domain.InspectOutput, error) {
	line := strings.TrimSpace(in.Line)
	if line == "" {
		return domain.InspectOutput{}, perr.Newf(perr.ErrorCodeValidation, "line is blank")
	}
	d, err := descriptor.Parse(line)
	if err != nil {
		return domain.InspectOutput{}, err
	}

	out := domain.InspectOutput{
		Scheme:      d.Scheme.String(),
		Opaque:      d.Opaque(),
		ServerName:  d.ServerName(),
		Key:         canonkey.Of(d),
		DisplayName: s.num.Annotator.Name(line, s.num.Note(line, 1)),
	}
	if ep, ok := d.Endpoint(); ok {
		out.Host, out.Port = ep.Host, ep.Port
		out.Label, out.Whitelisted = s.num.Ranges.Classify(ep.Host)
	}
	out.Excluded, _ = s.exc.Match(line)
	return out, nil
}

// Check filters a batch with the configured exclusion patterns
func (s *Svc) Check(_ context.Context, in domain.CheckInput) (domain.CheckOutput, error) {
	out := domain.CheckOutput{
		Kept:     []string{},
		Excluded: []domain.ExcludedLine{},
		Stats:    []domain.ReasonCount{},
	}
	lines := make([]string, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	res := s.exc.Filter(lines)
	out.Kept = append(out.Kept, res.Kept...)
	for _, x := range res.Excluded {
		out.Excluded = append(out.Excluded, domain.ExcludedLine{Line: x.Line, Reason: x.Reason})
	}
	for _, st := range res.Stats {
		out.Stats = append(out.Stats, domain.ReasonCount{Reason: st.Reason, Count: st.Count})
	}
	return out, nil
}
