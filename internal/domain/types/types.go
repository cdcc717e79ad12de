// Package types holds shared read shapes crossing layer boundaries.
package types

// Quota is the admission snapshot returned by the ledger.
type Quota struct {
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
	Limit     int `json:"limit"`
}

// Usage couples a quota snapshot with the identity and tier it was read for.
type Usage struct {
	Identity string `json:"identity"`
	Tier     string `json:"tier"`
	TierName string `json:"tier_name"`
	Quota
}

// ScanRequest carries the per-call scan parameters. It is a value object
// built per request and never persisted.
type ScanRequest struct {
	Address string `json:"address"`
	Chain   string `json:"chain"`
	Depth   string `json:"depth"`

	// Tier is an optional client-supplied override, honored only for
	// authenticated identities.
	Tier string `json:"tier,omitempty"`
}

// WithDefaults fills the chain and depth defaults used across the gateway.
func (r ScanRequest) WithDefaults() ScanRequest {
	if r.Chain == "" {
		r.Chain = "base"
	}
	if r.Depth == "" {
		r.Depth = "full"
	}
	return r
}

// ScanTicket is the successful result of admission-gated scan initiation.
type ScanTicket struct {
	ScanID    string `json:"scan_id"`
	StreamURL string `json:"stream_url"`
	Quota     Quota  `json:"quota"`
}
