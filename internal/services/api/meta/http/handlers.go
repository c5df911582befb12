// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"wlmerge/internal/core/merge"
	"wlmerge/internal/core/version"
	"wlmerge/internal/modkit/httpkit"
)

// Pinger is what /ready asks of a store
type Pinger interface {
	Ping(stdctx.Context) error
}

// Deps are what the meta routes report on. PG and CH are probed for Ping
// and may be nil
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
	// Pipeline is reported by /pipeline; nil reports the defaults
	Pipeline *merge.Pipeline
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/pipeline", h.pipeline)
}

// HealthResponse is the health payload
// swagger:model
type HealthResponse struct {
	OK      bool   `json:"ok"       example:"true"`
	Service string `json:"service"  example:"wlmerge-api"`
	Started string `json:"started"  example:"2025-09-03T13:00:00Z"`
	Now     string `json:"now"      example:"2025-09-03T13:05:00Z"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"   example:"pg"`
	Status string `json:"status" example:"ok"` // ok fail skipped unknown
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432 connect: connection refused"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2025-09-03T13:05:00Z"`
}

// ServiceResponse describes service info
type ServiceResponse struct {
	Name    string `json:"name"    example:"wlmerge-api"`
	Started string `json:"started" example:"2025-09-03T13:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

// ShadowedRange is a range that never matches because an earlier one covers it
type ShadowedRange struct {
	Range string `json:"range" example:"95.163.0.0/24"`
	By    string `json:"by"    example:"95.163.0.0/16"`
}

// PipelineResponse describes the classifier and filter configuration
type PipelineResponse struct {
	Ranges          int               `json:"ranges"           example:"214"`
	Shadowed        []ShadowedRange   `json:"shadowed"`
	ExcludePatterns []string          `json:"exclude_patterns" example:"@01010101"`
	ChannelTag      string            `json:"channel_tag"      example:"t.me/wlrus"`
	PriorityMarker  string            `json:"priority_marker"  example:"#🔥"`
	Build           version.BuildInfo `json:"build"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Health check
// @Tags Meta
// @Produce json
// @Success 200 type HealthResponse ok
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// swagger:route GET /meta/ready Meta metaReady
// @Summary Readiness probe with dependency checks
// @Tags Meta
// @Produce json
// @Success 200 type ReadyResponse ok
// @Failure 503 type ReadyResponse a configured store is down
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	res := ReadyResponse{Status: "ok", Now: time.Now().UTC().Format(time.RFC3339)}
	for _, st := range []struct {
		name string
		dep  any
	}{{"pg", h.deps.PG}, {"ch", h.deps.CH}} {
		c := probe(ctx, st.name, st.dep)
		res.Checks = append(res.Checks, c)
		// a store that is not configured is not a failure
		switch {
		case c.Status == "fail":
			res.Status = "fail"
		case c.Status == "unknown" && res.Status == "ok":
			res.Status = "degraded"
		}
	}
	if res.Status == "fail" {
		return httpkit.Response{Status: http.StatusServiceUnavailable, Data: res}, nil
	}
	return res, nil
}

const readyTimeout = 2 * time.Second

func probe(ctx stdctx.Context, name string, dep any) ReadyCheck {
	if dep == nil {
		return ReadyCheck{Name: name, Status: "skipped"}
	}
	p, ok := dep.(Pinger)
	if !ok {
		return ReadyCheck{Name: name, Status: "unknown"}
	}
	if err := p.Ping(ctx); err != nil {
		return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
	}
	return ReadyCheck{Name: name, Status: "ok"}
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 type version.BuildInfo ok
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

// swagger:route GET /meta/service Meta metaService
// @Summary Service info and uptime
// @Tags Meta
// @Produce json
// @Success 200 type ServiceResponse ok
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(time.Since(h.deps.StartedAt).Seconds()),
	}, nil
}

// swagger:route GET /meta/pipeline Meta metaPipeline
// @Summary Range table and exclusion patterns in effect
// @Tags Meta
// @Produce json
// @Success 200 type PipelineResponse ok
// @Router /meta/pipeline [get]
func (h *handlers) pipeline(_ *http.Request) (any, error) {
	p := h.deps.Pipeline
	if p == nil {
		p = merge.NewPipeline()
	}
	num := p.Numberer()
	out := PipelineResponse{
		Ranges:          num.Ranges.Len(),
		Shadowed:        []ShadowedRange{},
		ExcludePatterns: []string{},
		ChannelTag:      num.Annotator.ChannelTag(),
		PriorityMarker:  p.PriorityMarker,
		Build:           version.Info(),
	}
	for _, sh := range num.Ranges.Shadowed() {
		out.Shadowed = append(out.Shadowed, ShadowedRange{Range: sh.Range.Prefix.String(), By: sh.By.Prefix.String()})
	}
	if p.Excluder != nil {
		for _, pat := range p.Excluder.Patterns() {
			out.ExcludePatterns = append(out.ExcludePatterns, pat.Raw)
		}
	}
	return out, nil
}
