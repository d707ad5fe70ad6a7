package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if CLASSLENS_CONFIG is set
//  3. env (prefix CLASSLENS_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("CLASSLENS_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: CLASSLENS_ADDR, CLASSLENS_STORE_DRIVER, ...
	// Map env keys like CLASSLENS_STORE_DRIVER -> store_driver (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("CLASSLENS_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "classlens_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.StoreDriver != StoreDriverMemory && c.StoreDriver != StoreDriverSQLite {
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if c.DisagreementThreshold <= 0 {
		return fmt.Errorf("%w: disagreement_threshold must be positive", ErrInvalidConfig)
	}
	if c.ConflictFactor < -1 || c.ConflictFactor >= 1 {
		return fmt.Errorf("%w: conflict_factor must be in [-1, 1)", ErrInvalidConfig)
	}
	if c.MergeRetries < 1 {
		return fmt.Errorf("%w: merge_retries must be at least 1", ErrInvalidConfig)
	}
	if c.MaxClassroomSize < 1 {
		return fmt.Errorf("%w: max_classroom_size must be at least 1", ErrInvalidConfig)
	}
	if c.MaxTrendHorizon < 1 {
		return fmt.Errorf("%w: max_trend_horizon must be at least 1", ErrInvalidConfig)
	}
	for variant, w := range c.VariantWeights {
		if w <= 0 || w > 1 {
			return fmt.Errorf("%w: weight for variant %q must be in (0, 1]", ErrInvalidConfig, variant)
		}
	}
	for variant, b := range c.VariantBoosts {
		if b < 0 || b > 100 {
			return fmt.Errorf("%w: boost for variant %q must be in [0, 100]", ErrInvalidConfig, variant)
		}
	}
	return nil
}
