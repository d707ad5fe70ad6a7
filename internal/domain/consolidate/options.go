// Package consolidate implements the profile merge algorithm.
package consolidate

import "time"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithDisagreementThreshold sets how far a shared-dimension value may
// diverge from the consolidated value before it counts as conflict.
func WithDisagreementThreshold(t float64) Option {
	return func(e *Engine) {
		if t > 0 {
			e.threshold = t
		}
	}
}

// WithConflictFactor sets the multiplier applied to a conflicting
// contribution's confidence boost. Values in [-1, 1); negative values
// erode confidence, small positive values merely dampen the gain.
func WithConflictFactor(f float64) Option {
	return func(e *Engine) {
		if f >= -1 && f < 1 {
			e.conflictFactor = f
		}
	}
}

// WithClock injects the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDFunc injects the profile id generator, for deterministic tests.
func WithIDFunc(f func() string) Option {
	return func(e *Engine) {
		if f != nil {
			e.newID = f
		}
	}
}
