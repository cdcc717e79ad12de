// Package upstream opens scan event streams on the analysis engine.
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/verdictswarm/livescan/internal/domain/types"
)

// Forwarded metadata headers. The engine applies its own authoritative
// entitlement checks against these.
const (
	HeaderIdentity = "X-Scan-Identity"
	HeaderTier     = "X-Scan-Tier"
)

const defaultHeaderTimeout = 15 * time.Second

// Stream is an open event stream response from the engine. The caller owns
// Body and must close it. Status may be any HTTP status; the relay forwards
// non-2xx verbatim.
type Stream struct {
	Status      int
	ContentType string
	Body        io.ReadCloser
}

// Opener is the contract the relay uses to reach the engine.
type Opener interface {
	OpenStream(ctx context.Context, req types.ScanRequest, identity, tierKey string) (*Stream, error)
}

// Client implements Opener over HTTP.
type Client struct {
	baseURL    string
	streamPath string
	httpClient *http.Client
}

// NewClient creates an engine client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		streamPath: "/engine/scan/stream",
		httpClient: &http.Client{
			// No overall timeout: the body is a long-lived event stream.
			// Header arrival is bounded instead.
			Transport: &http.Transport{ResponseHeaderTimeout: defaultHeaderTimeout},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OpenStream performs the outbound streaming request. The inbound request's
// context must be passed so a client disconnect cancels the engine call.
func (c *Client) OpenStream(ctx context.Context, req types.ScanRequest, identity, tierKey string) (*Stream, error) {
	q := url.Values{}
	q.Set("address", req.Address)
	q.Set("chain", req.Chain)
	q.Set("depth", req.Depth)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.streamPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build engine request: %w", err)
	}
	httpReq.Header.Set(HeaderIdentity, identity)
	httpReq.Header.Set(HeaderTier, tierKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if resp.Body == nil {
		return nil, ErrUpstreamUnavailable
	}
	return &Stream{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}
