package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/verdictswarm/livescan/internal/adapters/upstream"
	"github.com/verdictswarm/livescan/internal/domain/tier"
	"github.com/verdictswarm/livescan/internal/domain/types"
	"github.com/verdictswarm/livescan/pkg/metrics"
)

const (
	// relayBufferSize bounds each copy chunk; small enough that events
	// reach the client promptly between flushes.
	relayBufferSize = 4 * 1024

	// errorBodyLimit caps how much of an upstream error body is forwarded.
	errorBodyLimit = 64 * 1024
)

// StreamHandler relays the engine's scan event stream to the client.
// It is stateless per call and never consumes quota.
type StreamHandler struct {
	deps Dependencies
}

// NewStreamHandler creates a new stream relay handler.
func NewStreamHandler(deps Dependencies) *StreamHandler {
	return &StreamHandler{deps: deps}
}

// HandleStream handles GET /v1/scan/stream.
//
// Query parameters: address (required), chain (default "base"), depth
// (default "full"), tier (optional override). The override is honored only
// for authenticated identities and is a client-side preview convenience;
// the engine re-validates entitlement against the forwarded identity.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.stream"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	address := strings.TrimSpace(q.Get("address"))
	if address == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrMissingAddress))
		return
	}

	identity, authenticated := identityFromRequest(r)

	effective := tier.Default()
	if override := q.Get("tier"); override != "" && authenticated {
		def, err := tier.Resolve(override)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown_tier", WrapKind(op, ErrBadRequest, err))
			return
		}
		effective = def
	}

	req := types.ScanRequest{
		Address: address,
		Chain:   q.Get("chain"),
		Depth:   q.Get("depth"),
	}.WithDefaults()

	stream, err := h.deps.Upstream().OpenStream(r.Context(), req, identity, string(effective.Key))
	if err != nil {
		if errors.Is(err, upstream.ErrUpstreamUnavailable) {
			metrics.RecordUpstreamError(strconv.Itoa(http.StatusBadGateway))
			writeError(w, http.StatusBadGateway, "upstream_unavailable", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	defer func() { _ = stream.Body.Close() }()

	if stream.Status < 200 || stream.Status >= 300 {
		h.forwardUpstreamError(w, stream)
		return
	}

	h.relay(r.Context(), w, stream)
}

// forwardUpstreamError passes the engine's own status and error text through
// rather than inventing a message.
func (h *StreamHandler) forwardUpstreamError(w http.ResponseWriter, stream *upstream.Stream) {
	metrics.RecordUpstreamError(strconv.Itoa(stream.Status))

	body, _ := io.ReadAll(io.LimitReader(stream.Body, errorBodyLimit))
	contentType := stream.ContentType
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(stream.Status)
	_, _ = w.Write(body)
}

// relay pipes the event stream through unmodified, flushing each chunk so
// no intermediary buffers a live feed.
func (h *StreamHandler) relay(ctx context.Context, w http.ResponseWriter, stream *upstream.Stream) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	metrics.StreamOpened()
	start := time.Now()
	defer func() { metrics.StreamClosed(time.Since(start).Seconds()) }()

	buf := make([]byte, relayBufferSize)
	for {
		n, readErr := stream.Body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				// Client went away; context cancellation tears down the
				// upstream request via the deferred body close.
				return
			}
			metrics.RecordRelayBytes(int64(n))
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr != nil {
			// EOF is the normal post-verdict close; anything else is a
			// dropped transport, which the client-side director absorbs.
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}
