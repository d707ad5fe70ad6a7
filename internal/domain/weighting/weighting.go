// Package weighting computes how much a single assessment submission
// should influence a consolidated profile.
//
// The variant-to-weight mapping is configuration, not computation: a
// structured classroom assessment simply counts for more than a short
// home checklist, and the whole table is visible here so coverage of
// every variant is checkable.
package weighting

import (
	"github.com/classlens/classlens/internal/domain/model"
)

// Default policy applied to variants missing from the table.
const (
	defaultWeight = 0.4
	defaultBoost  = 15
)

// Policy holds the per-variant influence parameters.
type Policy struct {
	Weight          float64 // 0..1 influence on the consolidated vector
	ConfidenceBoost float64 // 0..100 certainty one more observation adds
}

// defaultPolicies is the built-in variant table.
var defaultPolicies = map[model.Variant]Policy{
	model.VariantParentChecklist:     {Weight: 0.5, ConfidenceBoost: 25},
	model.VariantParentQuestionnaire: {Weight: 0.65, ConfidenceBoost: 28},
	model.VariantTeacherObservation:  {Weight: 0.8, ConfidenceBoost: 30},
	model.VariantTeacherStructured:   {Weight: 0.9, ConfidenceBoost: 35},
}

// Result is one submission's derived influence.
type Result struct {
	Weight            float64
	ConfidenceBoost   float64
	DimensionsCovered []string
}

// Option applies a configuration option to the Weighter.
type Option func(*Weighter)

// WithPolicy overrides or adds the policy for one variant.
func WithPolicy(v model.Variant, p Policy) Option {
	return func(w *Weighter) {
		if p.Weight > 0 && p.Weight <= 1 && p.ConfidenceBoost >= 0 {
			w.policies[v] = p
		}
	}
}

// WithPolicyTable replaces the table from configuration maps keyed by
// variant name. Entries with invalid weights are dropped.
func WithPolicyTable(weights, boosts map[string]float64) Option {
	return func(w *Weighter) {
		for name, weight := range weights {
			if weight <= 0 || weight > 1 {
				continue
			}
			p := Policy{Weight: weight, ConfidenceBoost: defaultBoost}
			if b, ok := boosts[name]; ok && b >= 0 {
				p.ConfidenceBoost = b
			}
			w.policies[model.Variant(name)] = p
		}
	}
}

// Weighter resolves submission influence from the variant table.
type Weighter struct {
	policies map[model.Variant]Policy
}

// New creates a Weighter with the built-in table.
func New(opts ...Option) *Weighter {
	w := &Weighter{policies: make(map[model.Variant]Policy, len(defaultPolicies))}
	for v, p := range defaultPolicies {
		w.policies[v] = p
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Weigh returns the influence of one submission. DimensionsCovered is
// exactly what the extractor produced for this submission, not the
// variant's theoretical coverage, so completeness tracks evidence
// actually collected.
func (w *Weighter) Weigh(variant model.Variant, scores model.ScoreVector) Result {
	p, ok := w.policies[variant]
	if !ok {
		p = Policy{Weight: defaultWeight, ConfidenceBoost: defaultBoost}
	}
	return Result{
		Weight:            p.Weight,
		ConfidenceBoost:   p.ConfidenceBoost,
		DimensionsCovered: scores.Covered(),
	}
}
