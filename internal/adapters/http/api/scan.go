package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/verdictswarm/livescan/internal/domain/quota"
	"github.com/verdictswarm/livescan/internal/domain/tier"
	"github.com/verdictswarm/livescan/internal/domain/types"
	"github.com/verdictswarm/livescan/pkg/metrics"
)

// ScanHandler handles admission-gated scan initiation.
type ScanHandler struct {
	deps Dependencies
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(deps Dependencies) *ScanHandler {
	return &ScanHandler{deps: deps}
}

// HandleBeginScan handles POST /v1/scan. This is the only place quota is
// consumed; the stream relay trusts the ticket and charges nothing.
func (h *ScanHandler) HandleBeginScan(w http.ResponseWriter, r *http.Request) {
	const op = "api.begin_scan"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	identity, authenticated := identityFromRequest(r)

	// The body tier is honored only for authenticated identities, mirroring
	// the relay; an anonymous claim never widens the charged allowance.
	def := tier.Default()
	if req.Tier != "" && authenticated {
		resolved, err := tier.Resolve(req.Tier)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown_tier", WrapKind(op, ErrBadRequest, err))
			return
		}
		def = resolved
	}

	scanReq := types.ScanRequest{Address: req.Address, Chain: req.Chain, Depth: req.Depth, Tier: req.Tier}.WithDefaults()

	ticket, err := h.deps.BeginScan(r.Context(), identity, string(def.Key), scanReq)
	switch {
	case err == nil:
		metrics.RecordScanAdmitted(string(def.Key))
		writeJSON(w, http.StatusOK, beginScanResponse{
			OK:        true,
			ScanID:    ticket.ScanID,
			StreamURL: ticket.StreamURL,
			Quota:     ticket.Quota,
		})
	case errors.Is(err, quota.ErrQuotaExceeded):
		metrics.RecordQuotaDenied(string(def.Key))
		var exceeded *quota.ExceededError
		if errors.As(err, &exceeded) {
			writeQuotaExceeded(w, exceeded.Quota, err)
			return
		}
		writeQuotaExceeded(w, types.Quota{Limit: def.DailyAllowance}, err)
	case errors.Is(err, quota.ErrLedgerUnavailable):
		// Fail closed: a broken ledger denies admission.
		metrics.RecordLedgerError()
		writeError(w, http.StatusServiceUnavailable, "ledger_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
