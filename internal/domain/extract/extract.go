// Package extract turns raw assessment responses into score vectors.
//
// Extraction never fails: unknown question ids, malformed values, and
// out-of-range numbers are skipped so that an unanswered or garbled
// question is indistinguishable from one that was never asked, and is
// never mistaken for a low score.
package extract

import (
	"strings"

	"github.com/classlens/classlens/internal/domain/model"
)

// frequencyScale maps textual frequency answers onto the 1-5 score range.
var frequencyScale = map[string]float64{
	"never":     1,
	"rarely":    2,
	"sometimes": 3,
	"often":     4,
	"always":    5,
}

// qualityScale maps textual quality judgements onto the 1-5 score range.
var qualityScale = map[string]float64{
	"poor":      1,
	"fair":      2,
	"adequate":  3,
	"good":      4,
	"excellent": 5,
}

// questionMaps lists, per assessment variant, which question id feeds
// which skill dimension. A variant only ever produces the dimensions it
// maps; everything else in a payload is ignored.
var questionMaps = map[model.Variant]map[string]string{
	model.VariantParentChecklist: {
		"shares_ideas_at_home":   model.DimCommunication,
		"plays_well_with_others": model.DimCollaboration,
		"stays_on_task":          model.DimEngagement,
		"joins_family_activity":  model.DimParticipation,
	},
	model.VariantParentQuestionnaire: {
		"shares_ideas_at_home":   model.DimCommunication,
		"plays_well_with_others": model.DimCollaboration,
		"stays_on_task":          model.DimEngagement,
		"joins_family_activity":  model.DimParticipation,
		"invents_games":          model.DimCreativity,
		"tries_new_things":       model.DimConfidence,
	},
	model.VariantTeacherObservation: {
		"class_discussion": model.DimCommunication,
		"group_work":       model.DimCollaboration,
		"subject_mastery":  model.DimContent,
		"problem_solving":  model.DimCriticalThinking,
		"attention_span":   model.DimEngagement,
		"hand_raising":     model.DimParticipation,
	},
	model.VariantTeacherStructured: {
		"class_discussion":   model.DimCommunication,
		"group_work":         model.DimCollaboration,
		"subject_mastery":    model.DimContent,
		"problem_solving":    model.DimCriticalThinking,
		"original_solutions": model.DimCreativity,
		"self_advocacy":      model.DimConfidence,
		"attention_span":     model.DimEngagement,
		"hand_raising":       model.DimParticipation,
	},
}

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithQuestionMap overrides the question-to-dimension map for a variant.
func WithQuestionMap(v model.Variant, m map[string]string) Option {
	return func(e *Extractor) {
		if len(m) > 0 {
			e.maps[v] = m
		}
	}
}

// Extractor converts raw response maps into score vectors.
type Extractor struct {
	maps map[model.Variant]map[string]string
}

// New creates an Extractor with the built-in variant question maps.
func New(opts ...Option) *Extractor {
	e := &Extractor{maps: make(map[model.Variant]map[string]string, len(questionMaps))}
	for v, m := range questionMaps {
		e.maps[v] = m
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract produces the score vector for one submission. Questions that
// map to the same dimension are averaged. The result contains only
// dimensions that received at least one valid answer.
func (e *Extractor) Extract(sub model.Submission) model.ScoreVector {
	qmap, ok := e.maps[sub.Variant]
	if !ok {
		return model.ScoreVector{}
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for qid, raw := range sub.Responses {
		dim, mapped := qmap[qid]
		if !mapped {
			continue
		}
		score, valid := scoreAnswer(model.ParseAnswer(raw))
		if !valid {
			continue
		}
		sums[dim] += score
		counts[dim]++
	}

	vec := make(model.ScoreVector, len(sums))
	for dim, sum := range sums {
		vec[dim] = sum / float64(counts[dim])
	}
	return vec
}

// scoreAnswer converts one normalized answer into a score. The switch is
// exhaustive over the answer kinds; anything invalid reports valid=false.
func scoreAnswer(a model.RawAnswer) (score float64, valid bool) {
	switch a.Kind {
	case model.AnswerNumber:
		if a.Number < model.ScoreMin || a.Number > model.ScoreMax {
			return 0, false
		}
		return a.Number, true
	case model.AnswerText:
		key := strings.ToLower(strings.TrimSpace(a.Text))
		if v, ok := frequencyScale[key]; ok {
			return v, true
		}
		if v, ok := qualityScale[key]; ok {
			return v, true
		}
		return 0, false
	case model.AnswerChoices:
		// Behavior checklists: more observed behaviors score higher.
		v := model.ScoreMin + float64(len(a.Choices)-1)
		if v > model.ScoreMax {
			v = model.ScoreMax
		}
		return v, true
	case model.AnswerInvalid:
		return 0, false
	default:
		return 0, false
	}
}

// CoverageFor returns the dimensions a variant can theoretically produce.
// Completeness accounting deliberately uses actual extraction output
// instead; this exists for documentation endpoints and tests.
func (e *Extractor) CoverageFor(v model.Variant) []string {
	qmap, ok := e.maps[v]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	for _, dim := range qmap {
		seen[dim] = struct{}{}
	}
	vec := make(model.ScoreVector, len(seen))
	for dim := range seen {
		vec[dim] = 0
	}
	return vec.Covered()
}
