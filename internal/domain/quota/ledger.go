// Package quota implements the daily admission ledger.
//
// The ledger tracks consumption per (calendar day, identity) and exposes
// consume-or-reject semantics. The atomicity of the read-increment-write
// lives in the backing store; the ledger adds identity normalization, the
// local-day key, and the fail-closed error contract.
package quota

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/verdictswarm/livescan/internal/adapters/repository"
	"github.com/verdictswarm/livescan/internal/domain/types"
)

// AnonymousIdentity is the sentinel used when no identity is authenticated.
const AnonymousIdentity = "anonymous"

// dateLayout is the calendar-day key in the server's local time zone.
const dateLayout = "2006-01-02"

// Ledger enforces per-identity, per-day allowances over an atomic Store.
type Ledger struct {
	store repository.Store
	now   func() time.Time
}

// New constructs a Ledger over the given store.
func New(store repository.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Normalize case-folds and trims an identity key. Empty input maps to the
// anonymous sentinel.
func Normalize(identity string) string {
	id := strings.ToLower(strings.TrimSpace(identity))
	if id == "" {
		return AnonymousIdentity
	}
	return id
}

// Consume charges one scan against identity's allowance for today.
// At the limit nothing is mutated (idempotent no-op) and an *ExceededError
// carrying the current snapshot is returned alongside it. A store failure
// surfaces as ErrLedgerUnavailable; callers must deny admission.
func (l *Ledger) Consume(ctx context.Context, identity string, allowance int) (types.Quota, error) {
	id := Normalize(identity)
	day := l.now().Format(dateLayout)

	count, incremented, err := l.store.IncrBelow(ctx, day, id, allowance)
	if err != nil {
		return types.Quota{}, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	q := snapshot(count, allowance)
	if !incremented {
		return q, &ExceededError{Identity: id, Quota: q}
	}
	return q, nil
}

// Usage returns identity's consumption for today without mutating it.
func (l *Ledger) Usage(ctx context.Context, identity string, allowance int) (types.Quota, error) {
	id := Normalize(identity)
	day := l.now().Format(dateLayout)

	count, err := l.store.Count(ctx, day, id)
	if err != nil {
		return types.Quota{}, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return snapshot(count, allowance), nil
}

func snapshot(used, limit int) types.Quota {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return types.Quota{Used: used, Remaining: remaining, Limit: limit}
}
