package dedupe

// Option configures the in-memory tracker.
type Option func(*tracker)

// WithCapacity bounds the number of remembered submission IDs. Once
// full the oldest entries are evicted first. A non-positive capacity
// disables eviction entirely.
func WithCapacity(capacity int) Option {
	return func(t *tracker) {
		t.capacity = capacity
	}
}
