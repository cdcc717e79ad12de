package scanengine

import "time"

// Option configures the engine.
type Option func(*Engine)

// WithStepDelay sets the pause between scripted events.
func WithStepDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.stepDelay = d
		}
	}
}

// WithScoreFn replaces the randomized scorer, making sessions
// reproducible.
func WithScoreFn(fn ScoreFn) Option {
	return func(e *Engine) {
		if fn != nil {
			e.score = fn
		}
	}
}
