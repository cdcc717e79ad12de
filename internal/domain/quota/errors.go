package quota

import (
	"errors"
	"fmt"

	"github.com/verdictswarm/livescan/internal/domain/types"
)

// Sentinel kinds for ledger errors.
var (
	// ErrLedgerUnavailable wraps store failures. Admission must fail closed
	// on this error, never silently allow.
	ErrLedgerUnavailable = errors.New("quota ledger unavailable")

	// ErrQuotaExceeded marks an identity already at its daily limit.
	ErrQuotaExceeded = errors.New("daily scan limit reached")
)

// ExceededError carries the usage snapshot for an at-limit identity so the
// caller can render it without a second round trip.
type ExceededError struct {
	Identity string
	Quota    types.Quota
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("%s for %s: used %d/%d today", ErrQuotaExceeded, e.Identity, e.Quota.Used, e.Quota.Limit)
}

func (e *ExceededError) Unwrap() error { return ErrQuotaExceeded }
