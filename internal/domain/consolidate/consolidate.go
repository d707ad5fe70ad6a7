// Package consolidate implements the profile merge algorithm: one new
// weighted contribution plus zero-or-one existing profiles in, one
// updated consolidated profile out.
//
// The defining behavior is dual: corroborating observations raise
// confidence by the contribution's full boost, while observations that
// diverge sharply from the running consolidated values dampen it.
// Completeness only ever grows, and grows most when a dimension is
// observed for the first time.
package consolidate

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/classlens/classlens/internal/domain/model"
)

// Default tunables. Both are configuration, not constants of nature; see
// the options in options.go.
const (
	defaultDisagreementThreshold = 1.5
	defaultConflictFactor        = -0.25
	recoverFraction              = 0.1
)

// Engine merges contributions into consolidated profiles. It is pure
// apart from id generation and clock reads, both injectable for tests.
type Engine struct {
	threshold      float64
	conflictFactor float64
	totalDims      int
	now            func() time.Time
	newID          func() string
}

// New creates an Engine with default tunables.
func New(opts ...Option) *Engine {
	e := &Engine{
		threshold:      defaultDisagreementThreshold,
		conflictFactor: defaultConflictFactor,
		totalDims:      len(model.Dimensions),
		now:            time.Now,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Outcome reports the result of one merge.
type Outcome struct {
	Profile       *model.ConsolidatedProfile
	IsNew         bool
	NewDimensions []string // dimensions covered for the first time
	Conflicting   bool     // the contribution diverged from prior evidence
}

// Merge consolidates one contribution. A nil existing profile creates a
// new one; otherwise the existing profile is never mutated, a deep copy
// is returned.
func (e *Engine) Merge(existing *model.ConsolidatedProfile, sub model.Submission, c model.Contribution) Outcome {
	if existing == nil {
		return e.create(sub, c)
	}
	return e.update(existing, sub, c)
}

func (e *Engine) create(sub model.Submission, c model.Contribution) Outcome {
	now := e.now()
	weights := make(map[string]float64, len(c.Scores))
	for dim := range c.Scores {
		weights[dim] = c.Weight
	}
	p := &model.ConsolidatedProfile{
		ID:               e.newID(),
		SubjectKey:       model.SubjectKey(sub.SubjectName),
		SubjectName:      sub.SubjectName,
		AgeBand:          sub.AgeBand,
		Scores:           c.Scores.Clone(),
		DimensionWeights: weights,
		Confidence:       clamp(c.ConfidenceBoost, 0, 100),
		Completeness:     clamp(float64(len(c.Scores))/float64(e.totalDims)*100, 0, 100),
		Contributions:    []model.Contribution{c},
		RoleCounts:       map[model.Role]int{c.Role: 1},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return Outcome{Profile: p, IsNew: true, NewDimensions: c.Scores.Covered()}
}

func (e *Engine) update(existing *model.ConsolidatedProfile, sub model.Submission, c model.Contribution) Outcome {
	p := existing.Clone()

	conflicting := e.disagrees(p.Scores, c.Scores)

	// Blend every dimension the contribution actually covers, weighted
	// by cumulative weight-to-date. Dimensions it does not cover are
	// left untouched.
	var newDims []string
	for dim, val := range c.Scores {
		prevWeight := p.DimensionWeights[dim]
		if prevWeight == 0 {
			p.Scores[dim] = val
			newDims = append(newDims, dim)
		} else {
			p.Scores[dim] = (p.Scores[dim]*prevWeight + val*c.Weight) / (prevWeight + c.Weight)
		}
		p.DimensionWeights[dim] = prevWeight + c.Weight
	}

	reCovered := len(c.Scores) - len(newDims)
	p.Confidence = e.nextConfidence(p.Confidence, c.ConfidenceBoost, conflicting)
	p.Completeness = e.nextCompleteness(p.Completeness, len(newDims), reCovered)

	p.Contributions = append(p.Contributions, c)
	p.RoleCounts[c.Role]++
	if p.AgeBand == "" && sub.AgeBand != "" {
		p.AgeBand = sub.AgeBand
	}
	p.UpdatedAt = e.now()

	return Outcome{Profile: p, NewDimensions: sortStrings(newDims), Conflicting: conflicting}
}

// disagrees reports whether any shared dimension diverges beyond the
// disagreement threshold.
func (e *Engine) disagrees(consolidated, incoming model.ScoreVector) bool {
	for dim, val := range incoming {
		if prev, ok := consolidated[dim]; ok && math.Abs(val-prev) > e.threshold {
			return true
		}
	}
	return false
}

// nextConfidence computes the post-merge confidence. A consistent
// contribution adds its full boost; a conflicting one adds
// boost*conflictFactor, which with the default negative factor erodes
// certainty instead.
func (e *Engine) nextConfidence(prev, boost float64, conflicting bool) float64 {
	delta := boost
	if conflicting {
		delta = boost * e.conflictFactor
	}
	return clamp(prev+delta, 0, 100)
}

// nextCompleteness computes the post-merge completeness. First-time
// coverage of a dimension is worth its full share of the dimension
// space; re-covering an already-observed dimension reinforces far less.
// The result never drops below prev.
func (e *Engine) nextCompleteness(prev float64, newlyCovered, reCovered int) float64 {
	share := 100 / float64(e.totalDims)
	next := prev + float64(newlyCovered)*share + float64(reCovered)*share*recoverFraction
	return clamp(next, prev, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func sortStrings(s []string) []string {
	sort.Strings(s)
	return s
}
