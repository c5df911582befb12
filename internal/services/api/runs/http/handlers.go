// Package http lists merge runs from the ledger
package http

import (
	stdhttp "net/http"
	"strconv"
	"strings"

	"wlmerge/internal/modkit/httpkit"
	perr "wlmerge/internal/platform/errors"
	"wlmerge/internal/services/merge/domain"
)

// MaxLimit caps ?limit
const MaxLimit = 200

// Register mounts run endpoints. A nil ledger answers 503
func Register(r httpkit.Router, l domain.LedgerPort) {
	h := &handlers{ledger: l}
	httpkit.Get(r, "/", h.recent)
}

type handlers struct{ ledger domain.LedgerPort }

// swagger:route GET /runs Runs runsRecent
// @Summary Latest merge runs, newest first
// @Tags Runs
// @Produce json
// @Param limit query int false "1..200, default 20"
// @Success 200 {array} domain.RunSummary "ok"
// @Failure 503 {object} httpkit.Envelope "ledger not configured"
// @Router /runs [get]
func (h *handlers) recent(r *stdhttp.Request) (any, error) {
	if h.ledger == nil {
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "run ledger is not configured")
	}
	limit := 0
	if s := strings.TrimSpace(r.URL.Query().Get("limit")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > MaxLimit {
			return nil, perr.Newf(perr.ErrorCodeValidation, "limit must be between 1 and %d", MaxLimit)
		}
		limit = n
	}
	runs, err := h.ledger.RecentRuns(r.Context(), limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []domain.RunSummary{}
	}
	return runs, nil
}
