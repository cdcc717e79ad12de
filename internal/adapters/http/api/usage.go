package api

import (
	"errors"
	"net/http"

	"github.com/verdictswarm/livescan/internal/domain/quota"
	"github.com/verdictswarm/livescan/internal/domain/tier"
	"github.com/verdictswarm/livescan/pkg/metrics"
)

// UsageHandler exposes the caller's own quota snapshot.
type UsageHandler struct {
	deps Dependencies
}

// NewUsageHandler creates a new usage handler.
func NewUsageHandler(deps Dependencies) *UsageHandler {
	return &UsageHandler{deps: deps}
}

// HandleUsage handles GET /v1/usage. Read-only: never consumes quota.
func (h *UsageHandler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	const op = "api.usage"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	def, err := tier.Resolve(r.URL.Query().Get("tier"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_tier", WrapKind(op, ErrBadRequest, err))
		return
	}

	identity, _ := identityFromRequest(r)
	usage, err := h.deps.Usage(r.Context(), identity, string(def.Key))
	if err != nil {
		if errors.Is(err, quota.ErrLedgerUnavailable) {
			metrics.RecordLedgerError()
			writeError(w, http.StatusServiceUnavailable, "ledger_unavailable", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}
