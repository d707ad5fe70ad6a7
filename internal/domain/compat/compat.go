// Package compat computes pairwise seating/grouping compatibility
// between consolidated profiles. Scores start from a neutral base and
// are adjusted by the style-pair table, score complementarity, risk
// pairing rules, and energy-level fit, then clamped to [0, 10].
package compat

import (
	"fmt"

	"github.com/classlens/classlens/internal/domain/model"
	"github.com/classlens/classlens/internal/domain/styles"
)

// Score bounds and adjustment magnitudes.
const (
	BaseScore = 5.0
	MinScore  = 0.0
	MaxScore  = 10.0

	complementarityGap    = 1.5
	complementBonus       = 0.75
	sharedStrengthBonus   = 0.3
	strongThreshold       = 4.0
	bothHighRiskPenalty   = 2.5
	isolationPairBonus    = 1.0
	energyMismatchPenalty = 1.0
	energyMatchBonus      = 0.5
)

// stylePairAdjust covers every ordered pair of styles, identical pairs
// included, so lookup is total by construction.
var stylePairAdjust = map[styles.Style]map[styles.Style]float64{
	styles.Visual: {
		styles.Visual:      0.5,
		styles.Auditory:    0.25,
		styles.Kinesthetic: 0.25,
		styles.Analytical:  0.75,
	},
	styles.Auditory: {
		styles.Visual:      0.25,
		styles.Auditory:    0.25,
		styles.Kinesthetic: 0.75,
		styles.Analytical:  -0.5,
	},
	styles.Kinesthetic: {
		styles.Visual:      0.25,
		styles.Auditory:    0.75,
		styles.Kinesthetic: -0.25,
		styles.Analytical:  -0.75,
	},
	styles.Analytical: {
		styles.Visual:      0.75,
		styles.Auditory:    -0.5,
		styles.Kinesthetic: -0.75,
		styles.Analytical:  0.5,
	},
}

// Result explains a pairwise compatibility score.
type Result struct {
	Score        float64            `json:"score"`
	StyleA       styles.Style       `json:"style_a"`
	StyleB       styles.Style       `json:"style_b"`
	PreferencesA styles.Preferences `json:"preferences_a"`
	PreferencesB styles.Preferences `json:"preferences_b"`
	Factors      []string           `json:"factors"`
}

// Score computes the compatibility between two profiles. Risk factors
// are passed in by the caller so this stays a pure function over
// already-derived data.
func Score(a, b *model.ConsolidatedProfile, risksA, risksB []model.RiskFactor) Result {
	styleA := styles.Classify(a.Scores)
	styleB := styles.Classify(b.Scores)

	r := Result{
		Score:        BaseScore,
		StyleA:       styleA,
		StyleB:       styleB,
		PreferencesA: styles.PreferencesFor(styleA),
		PreferencesB: styles.PreferencesFor(styleB),
	}

	adjust := stylePairAdjust[styleA][styleB]
	r.Score += adjust
	r.Factors = append(r.Factors, fmt.Sprintf("style pairing %s/%s: %+.2f", styleA, styleB, adjust))

	// Complementarity: a wide gap on a shared dimension means one can
	// compensate for the other's weakness; twin strengths earn less.
	for dim, va := range a.Scores {
		vb, shared := b.Scores[dim]
		if !shared {
			continue
		}
		gap := va - vb
		if gap < 0 {
			gap = -gap
		}
		switch {
		case gap >= complementarityGap:
			r.Score += complementBonus
			r.Factors = append(r.Factors, fmt.Sprintf("complementary on %s: %+.2f", dim, complementBonus))
		case va >= strongThreshold && vb >= strongThreshold:
			r.Score += sharedStrengthBonus
			r.Factors = append(r.Factors, fmt.Sprintf("shared strength in %s: %+.2f", dim, sharedStrengthBonus))
		}
	}

	if hasSeverity(risksA, model.SeverityHigh) && hasSeverity(risksB, model.SeverityHigh) {
		r.Score -= bothHighRiskPenalty
		r.Factors = append(r.Factors, fmt.Sprintf("both carry high-severity risk: -%.2f", bothHighRiskPenalty))
	}

	isoA := hasType(risksA, model.RiskSocialIsolation)
	isoB := hasType(risksB, model.RiskSocialIsolation)
	if isoA != isoB {
		r.Score += isolationPairBonus
		r.Factors = append(r.Factors, fmt.Sprintf("pairs an isolated subject with a connected one: %+.2f", isolationPairBonus))
	}

	energyA := r.PreferencesA.EnergyLevel
	energyB := r.PreferencesB.EnergyLevel
	switch {
	case (energyA == "high" && energyB == "low") || (energyA == "low" && energyB == "high"):
		r.Score -= energyMismatchPenalty
		r.Factors = append(r.Factors, fmt.Sprintf("energy mismatch (%s vs %s): -%.2f", energyA, energyB, energyMismatchPenalty))
	case energyA == energyB:
		r.Score += energyMatchBonus
		r.Factors = append(r.Factors, fmt.Sprintf("matching energy (%s): %+.2f", energyA, energyMatchBonus))
	}

	if r.Score < MinScore {
		r.Score = MinScore
	}
	if r.Score > MaxScore {
		r.Score = MaxScore
	}
	return r
}

func hasSeverity(factors []model.RiskFactor, s model.Severity) bool {
	for _, f := range factors {
		if f.Severity == s {
			return true
		}
	}
	return false
}

func hasType(factors []model.RiskFactor, t model.RiskType) bool {
	for _, f := range factors {
		if f.Type == t {
			return true
		}
	}
	return false
}
