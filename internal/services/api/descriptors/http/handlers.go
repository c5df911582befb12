// Package http provides http transport for descriptor tools
package http

import (
	stdhttp "net/http"

	"wlmerge/internal/modkit/httpkit"
	"wlmerge/internal/services/api/descriptors/domain"
	svc "wlmerge/internal/services/api/descriptors/service"
)

// Register mounts descriptor endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	httpkit.PostJSON[domain.ClassifyInput](r, "/classify", h.classify)
	httpkit.PostJSON[domain.InspectInput](r, "/inspect", h.inspect)

	// dry run of the exclusion stage
	httpkit.PostJSON[domain.CheckInput](r, "/check", h.check)
}

type handlers struct{ svc svc.Service }

// swagger:route POST /descriptors/classify Descriptors descriptorsClassify
// @Summary Whitelisted range of an IPv4 address
// @Tags Descriptors
// @Accept json
// @Produce json
// @Param payload body domain.ClassifyInput true "Address"
// @Success 200 {object} domain.ClassifyOutput "ok"
// @Router /descriptors/classify [post]
func (h *handlers) classify(r *stdhttp.Request, in domain.ClassifyInput) (any, error) {
	return h.svc.Classify(r.Context(), in)
}

// swagger:route POST /descriptors/inspect Descriptors descriptorsInspect
// @Summary Parse one descriptor line
// @Tags Descriptors
// @Accept json
// @Produce json
// @Param payload body domain.InspectInput true "Line"
// @Success 200 {object} domain.InspectOutput "ok"
// @Failure 422 {object} httpkit.Envelope "malformed line"
// @Router /descriptors/inspect [post]
func (h *handlers) inspect(r *stdhttp.Request, in domain.InspectInput) (any, error) {
	return h.svc.Inspect(r.Context(), in)
}

// swagger:route POST /descriptors/check Descriptors descriptorsCheck
// @Summary Apply the exclusion patterns to a batch
// @Tags Descriptors
// @Accept json
// @Produce json
// @Param payload body domain.CheckInput true "Lines"
// @Success 200 {object} domain.CheckOutput "ok"
// @Router /descriptors/check [post]
func (h *handlers) check(r *stdhttp.Request, in domain.CheckInput) (any, error) {
	return h.svc.Check(r.Context(), in)
}
