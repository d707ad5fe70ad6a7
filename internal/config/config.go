// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Supported profile store drivers.
const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects profile persistence: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is the sqlite datasource; ignored for the memory driver.
	StoreDSN string `koanf:"store_dsn"`

	// DedupeSize bounds the submission idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// DisagreementThreshold is the score gap between observers on a
	// shared dimension that counts as a conflict.
	DisagreementThreshold float64 `koanf:"disagreement_threshold"`

	// ConflictFactor scales a contribution's confidence boost when it
	// conflicts with the existing profile. Negative values reduce
	// confidence.
	ConflictFactor float64 `koanf:"conflict_factor"`

	// MergeRetries caps re-reads after losing a first-submission race
	// on stores without atomic merge support.
	MergeRetries int `koanf:"merge_retries"`

	// MaxClassroomSize caps the number of profiles per classroom
	// analytics request.
	MaxClassroomSize int `koanf:"max_classroom_size"`

	// MaxTrendHorizon caps how many steps ahead a trend request may ask for.
	MaxTrendHorizon int `koanf:"max_trend_horizon"`

	// VariantWeights maps assessment variants to their influence (0..1].
	VariantWeights map[string]float64 `koanf:"variant_weights"`

	// VariantBoosts maps assessment variants to their confidence boost.
	VariantBoosts map[string]float64 `koanf:"variant_boosts"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use
// and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":8080",
		StoreDriver:           StoreDriverMemory,
		StoreDSN:              "",
		DedupeSize:            50_000,
		DisagreementThreshold: 1.5,
		ConflictFactor:        -0.25,
		MergeRetries:          3,
		MaxClassroomSize:      200,
		MaxTrendHorizon:       12,
		VariantWeights:        map[string]float64{},
		VariantBoosts:         map[string]float64{},
	}
	return c
}
