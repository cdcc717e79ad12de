package timeline

import (
	"math/rand"
	"time"
)

// Option configures the director.
type Option func(*Director)

// WithSteps replaces the presentation ladder. Fewer than two steps would
// leave nowhere to advance, so short slices are ignored.
func WithSteps(steps []string) Option {
	return func(d *Director) {
		if len(steps) >= 2 {
			d.steps = steps
		}
	}
}

// WithSimulateInterval sets the bounds for the randomized fallback timer.
func WithSimulateInterval(min, max time.Duration) Option {
	return func(d *Director) {
		if min > 0 {
			d.simulateMin = min
		}
		if max >= d.simulateMin {
			d.simulateMax = max
		}
	}
}

// WithRandSource seeds the fallback interval jitter, for reproducibility.
func WithRandSource(src rand.Source) Option {
	return func(d *Director) {
		d.rng = rand.New(src)
	}
}
