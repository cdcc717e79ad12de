package scanengine

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/verdictswarm/livescan/internal/adapters/upstream"
	"github.com/verdictswarm/livescan/internal/domain/tier"
	"github.com/verdictswarm/livescan/pkg/logger"
)

// Handler serves GET /engine/scan/stream. The forwarded identity is logged
// for traceability; entitlement itself is re-checked via the tier header,
// never trusted from the query string.
func (e *Engine) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}

		address := strings.TrimSpace(r.URL.Query().Get("address"))
		if address == "" {
			http.Error(w, "missing address", http.StatusBadRequest)
			return
		}

		def, err := tier.Resolve(r.Header.Get(upstream.HeaderTier))
		if err != nil {
			http.Error(w, "unknown tier", http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		scanID := uuid.New().String()
		logger.Get().Info(r.Context(), "scripted scan started",
			logger.String("scan_id", scanID),
			logger.String("address", address),
			logger.String("tier", string(def.Key)),
			logger.String("identity", r.Header.Get(upstream.HeaderIdentity)),
		)

		e.run(w, flusher, r, scanID, address, def)
	}
}

func (e *Engine) run(w http.ResponseWriter, flusher http.Flusher, r *http.Request, scanID, address string, def tier.Definition) {
	ctx := r.Context()
	agents := agentsFor(def.AgentCount)

	emit := func(kind string, payload any) bool {
		if ctx.Err() != nil {
			return false
		}
		body, err := sonic.Marshal(payload)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", kind, body); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	pause := func() bool {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(e.stepDelay):
			return true
		}
	}

	if !emit("scan:start", map[string]any{
		"scan_id": scanID,
		"address": address,
		"chain":   r.URL.Query().Get("chain"),
		"tier":    string(def.Key),
		"agents":  len(agents),
	}) {
		return
	}

	score := e.score(address)
	for i, agent := range agents {
		if !pause() || !emit("agent:start", map[string]any{"agent": agent, "index": i}) {
			return
		}
		if !pause() || !emit("agent:complete", map[string]any{
			"agent": agent,
			"index": i,
			"score": score + (randomFloat()-0.5)*10,
		}) {
			return
		}
	}

	if !pause() || !emit("scan:consensus", map[string]any{
		"scan_id": scanID,
		"method":  "weighted_vote",
		"agents":  len(agents),
	}) {
		return
	}

	if !pause() {
		return
	}
	emit("scan:complete", map[string]any{
		"scan_id": scanID,
		"verdict": verdictFor(score),
		"score":   score,
		"grade":   gradeFor(score),
	})
}
