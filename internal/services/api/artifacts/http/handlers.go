// Package http serves the published artifacts
package http

import (
	stdhttp "net/http"

	"wlmerge/internal/modkit/httpkit"
	"wlmerge/internal/services/merge/domain"
)

// Register mounts artifact endpoints on the given router
func Register(r httpkit.Router, p domain.ArtifactPort) {
	h := &handlers{port: p}

	httpkit.Get(r, "/", h.list)
	r.Get("/{name}", httpkit.Text(h.raw))
}

type handlers struct{ port domain.ArtifactPort }

// swagger:route GET /artifacts Artifacts artifactsList
// @Summary Published artifacts and their state
// @Tags Artifacts
// @Produce json
// @Success 200 {array} domain.ArtifactInfo "ok"
// @Router /artifacts [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	return h.port.Artifacts(r.Context())
}

// swagger:route GET /artifacts/{name} Artifacts artifactsRaw
// @Summary Artifact file as served to subscription clients
// @Tags Artifacts
// @Produce plain
// @Param name path string true "merged, wl or selected"
// @Success 200 {string} string "file content"
// @Failure 404 {object} httpkit.Envelope "unknown or not yet published"
// @Router /artifacts/{name} [get]
func (h *handlers) raw(r *stdhttp.Request) ([]byte, error) {
	return h.port.Artifact(r.Context(), httpkit.Param(r, "name"))
}
