// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/verdictswarm/livescan/internal/adapters/upstream"
	"github.com/verdictswarm/livescan/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the wiring in the app package.
type Dependencies interface {
	// BeginScan runs quota admission for identity at tierKey and returns a
	// scan ticket on success.
	BeginScan(ctx context.Context, identity, tierKey string, req types.ScanRequest) (types.ScanTicket, error)

	// Usage returns the caller's current quota snapshot without mutation.
	Usage(ctx context.Context, identity, tierKey string) (types.Usage, error)

	// Upstream returns the opener used by the stream relay.
	Upstream() upstream.Opener
}

// Server wires HTTP routes for the gateway API.
type Server struct {
	healthHandler *HealthHandler
	scanHandler   *ScanHandler
	usageHandler  *UsageHandler
	streamHandler *StreamHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		scanHandler:   NewScanHandler(deps),
		usageHandler:  NewUsageHandler(deps),
		streamHandler: NewStreamHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/v1/scan", MetricsMiddleware(s.scanHandler.HandleBeginScan, "scan"))
	mux.HandleFunc("/v1/usage", MetricsMiddleware(s.usageHandler.HandleUsage, "usage"))
	mux.HandleFunc("/v1/scan/stream", MetricsMiddleware(s.streamHandler.HandleStream, "stream"))
}

// scanRequest mirrors the JSON body of POST /v1/scan.
type scanRequest struct {
	Address string `json:"address"`
	Chain   string `json:"chain"`
	Depth   string `json:"depth"`
	Tier    string `json:"tier"`
}

func (r scanRequest) validate() error {
	if strings.TrimSpace(r.Address) == "" {
		return NewKind("api.begin_scan", ErrMissingAddress)
	}
	return nil
}

type beginScanResponse struct {
	OK        bool        `json:"ok"`
	ScanID    string      `json:"scan_id"`
	StreamURL string      `json:"stream_url"`
	Quota     types.Quota `json:"quota"`
}

type errorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Quota   *types.Quota `json:"quota,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeQuotaExceeded surfaces the usage snapshot so the client can render
// remaining=0 without a second round trip.
func writeQuotaExceeded(w http.ResponseWriter, q types.Quota, err error) {
	msg := http.StatusText(http.StatusTooManyRequests)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Code: "quota_exceeded", Message: msg, Quota: &q})
}
