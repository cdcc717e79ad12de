package upstream

import "errors"

// Sentinel kinds for engine client errors.
var (
	ErrUpstreamUnavailable = errors.New("analysis engine unavailable")
)
