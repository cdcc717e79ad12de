// Package repository defines the quota store interface and its implementations.
package repository

import "context"

// Store provides the per-(day, identity) counter state behind the quota
// ledger. The read-modify-write of IncrBelow must be atomic per key; that is
// the correctness property the ledger's admission gate relies on.
type Store interface {
	// IncrBelow atomically increments the counter for (dateKey, identity)
	// by one if, and only if, its current value is below ceiling. It returns
	// the count after the call and whether an increment happened. A missing
	// row counts as zero and is created lazily.
	IncrBelow(ctx context.Context, dateKey, identity string, ceiling int) (count int, incremented bool, err error)

	// Count returns the current counter for (dateKey, identity) without
	// mutating it. A missing row reads as zero.
	Count(ctx context.Context, dateKey, identity string) (int, error)
}
