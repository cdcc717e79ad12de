package quota

import "time"

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithNow overrides the ledger clock. The day key is derived from this
// clock's local calendar day; tests use it to cross day boundaries.
func WithNow(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}
