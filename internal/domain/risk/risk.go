// Package risk derives ranked risk factors from consolidated profiles.
//
// Every detector is total: missing dimensions read as "not at risk", a
// detector never errors, and the output is recomputed on demand rather
// than stored.
package risk

import (
	"fmt"
	"sort"

	"github.com/classlens/classlens/internal/domain/model"
	"github.com/classlens/classlens/internal/domain/styles"
)

// Detector thresholds. Scores live on the 1-5 scale, teaching fit on 0-1.
const (
	teachingFitThreshold   = 0.70
	teachingFitMediumGap   = 0.10
	teachingFitHighGap     = 0.25
	lowEngagementThreshold = 2.5
	severeEngagement       = 1.5
	isolationThreshold     = 2.5
	struggleMinGap         = 0.5
	struggleMediumGap      = 1.0
	struggleHighGap        = 1.5
)

// academicDims are the three dimensions the struggle detector compares
// against the cohort.
var academicDims = []string{model.DimContent, model.DimCriticalThinking, model.DimCommunication}

// teachingFitByStyle is the base fit of each learning style to a
// conventional classroom; kinesthetic learners fare worst in one.
var teachingFitByStyle = map[styles.Style]float64{
	styles.Visual:      0.78,
	styles.Auditory:    0.82,
	styles.Kinesthetic: 0.58,
	styles.Analytical:  0.72,
}

// CohortAverages carries the classroom-level context a profile is
// compared against.
type CohortAverages struct {
	Academic float64 // cohort mean over the academic dimensions
}

// Assess scans one profile and returns its risk factors ordered by
// severity, highest first.
func Assess(p *model.ConsolidatedProfile, cohort CohortAverages) []model.RiskFactor {
	if p == nil {
		return nil
	}
	style := styles.Classify(p.Scores)

	var out []model.RiskFactor
	if f := detectStyleMismatch(p, style); f != nil {
		out = append(out, *f)
	}
	if f := detectLowEngagement(p); f != nil {
		out = append(out, *f)
	}
	if f := detectSocialIsolation(p, style); f != nil {
		out = append(out, *f)
	}
	if f := detectAcademicStruggle(p, cohort); f != nil {
		out = append(out, *f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return model.SeverityRank(out[i].Severity) > model.SeverityRank(out[j].Severity)
	})
	return out
}

// TeachingFit returns the 0-1 compatibility between a profile and a
// conventional classroom: the style's base fit nudged by observed
// engagement.
func TeachingFit(p *model.ConsolidatedProfile, style styles.Style) float64 {
	fit, ok := teachingFitByStyle[style]
	if !ok {
		fit = teachingFitByStyle[styles.Visual]
	}
	if eng, observed := p.Scores[model.DimEngagement]; observed {
		fit += (eng - 3) * 0.05
	}
	if fit < 0 {
		fit = 0
	}
	if fit > 1 {
		fit = 1
	}
	return fit
}

func detectStyleMismatch(p *model.ConsolidatedProfile, style styles.Style) *model.RiskFactor {
	fit := TeachingFit(p, style)
	if fit >= teachingFitThreshold {
		return nil
	}
	gap := teachingFitThreshold - fit
	severity := model.SeverityLow
	switch {
	case gap >= teachingFitHighGap:
		severity = model.SeverityHigh
	case gap >= teachingFitMediumGap:
		severity = model.SeverityMedium
	}
	return &model.RiskFactor{
		ID:          riskID(p, model.RiskLearningStyleMismatch),
		Type:        model.RiskLearningStyleMismatch,
		Severity:    severity,
		Description: fmt.Sprintf("%s learning style fits the current teaching approach at %.0f%%", style, fit*100),
		Indicators: []string{
			fmt.Sprintf("teaching compatibility %.2f below the %.2f threshold", fit, teachingFitThreshold),
			fmt.Sprintf("classified learning style: %s", style),
		},
		Interventions: []string{
			fmt.Sprintf("introduce %s-friendly activities into core lessons", style),
			"review seating and lesson pacing with the subject's teacher",
		},
		Timeline: model.TimelineShortTerm,
	}
}

func detectLowEngagement(p *model.ConsolidatedProfile) *model.RiskFactor {
	eng, hasEng := p.Scores[model.DimEngagement]
	part, hasPart := p.Scores[model.DimParticipation]
	if !hasEng || !hasPart {
		return nil
	}
	if eng > lowEngagementThreshold || part > lowEngagementThreshold {
		return nil
	}
	severity := model.SeverityMedium
	timeline := model.TimelineShortTerm
	if eng <= severeEngagement && part <= severeEngagement {
		severity = model.SeverityHigh
		timeline = model.TimelineImmediate
	}
	return &model.RiskFactor{
		ID:          riskID(p, model.RiskLowEngagement),
		Type:        model.RiskLowEngagement,
		Severity:    severity,
		Description: "engagement and participation are both below the attention threshold",
		Indicators: []string{
			fmt.Sprintf("engagement %.1f of 5", eng),
			fmt.Sprintf("participation %.1f of 5", part),
		},
		Interventions: []string{
			"rotate in short, high-interest tasks",
			"agree on a participation signal with the subject",
			"check for unmet needs outside the classroom",
		},
		Timeline: timeline,
	}
}

func detectSocialIsolation(p *model.ConsolidatedProfile, style styles.Style) *model.RiskFactor {
	// Analytical learners naturally score lower on collaboration; a low
	// reading is not a risk signal for them. Documented exception, not
	// an oversight.
	if style == styles.Analytical {
		return nil
	}
	comm, hasComm := p.Scores[model.DimCommunication]
	collab, hasCollab := p.Scores[model.DimCollaboration]
	if !hasComm || !hasCollab {
		return nil
	}
	if comm > isolationThreshold || collab > isolationThreshold {
		return nil
	}
	severity := model.SeverityMedium
	if comm <= severeEngagement && collab <= severeEngagement {
		severity = model.SeverityHigh
	}
	return &model.RiskFactor{
		ID:          riskID(p, model.RiskSocialIsolation),
		Type:        model.RiskSocialIsolation,
		Severity:    severity,
		Description: "peer interaction and collaboration are both low",
		Indicators: []string{
			fmt.Sprintf("communication %.1f of 5", comm),
			fmt.Sprintf("collaboration %.1f of 5", collab),
		},
		Interventions: []string{
			"pair with a well-connected peer for structured activities",
			"assign a small-group role with a clear responsibility",
		},
		Timeline: model.TimelineOngoing,
	}
}

func detectAcademicStruggle(p *model.ConsolidatedProfile, cohort CohortAverages) *model.RiskFactor {
	if cohort.Academic <= 0 {
		return nil
	}
	avg, observed := AcademicAverage(p.Scores)
	if !observed {
		return nil
	}
	gap := cohort.Academic - avg
	if gap < struggleMinGap {
		return nil
	}
	severity := model.SeverityLow
	switch {
	case gap >= struggleHighGap:
		severity = model.SeverityHigh
	case gap >= struggleMediumGap:
		severity = model.SeverityMedium
	}
	indicators := []string{
		fmt.Sprintf("academic average %.2f against cohort %.2f", avg, cohort.Academic),
	}
	// A strictly monotonic decline over the last three observations
	// escalates severity one step. Ordered comparison only, no
	// statistics.
	if declining(p) {
		severity = escalate(severity)
		indicators = append(indicators, "last three observations show a steady decline")
	}
	return &model.RiskFactor{
		ID:            riskID(p, model.RiskAcademicStruggle),
		Type:          model.RiskAcademicStruggle,
		Severity:      severity,
		Description:   "academic dimensions trail the cohort average",
		Indicators:    indicators,
		Interventions: []string{"schedule targeted small-group instruction", "re-assess after two weeks of support"},
		Timeline:      model.TimelineImmediate,
	}
}

// AcademicAverage averages the academic dimensions actually observed.
func AcademicAverage(v model.ScoreVector) (float64, bool) {
	sum, n := 0.0, 0
	for _, dim := range academicDims {
		if val, ok := v[dim]; ok {
			sum += val
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// declining reports whether the academic average of the last three
// contributions that observed academic dimensions strictly decreases.
func declining(p *model.ConsolidatedProfile) bool {
	var series []float64
	for _, c := range p.Contributions {
		if avg, ok := AcademicAverage(c.Scores); ok {
			series = append(series, avg)
		}
	}
	if len(series) < 3 {
		return false
	}
	last := series[len(series)-3:]
	return last[0] > last[1] && last[1] > last[2]
}

func escalate(s model.Severity) model.Severity {
	switch s {
	case model.SeverityLow:
		return model.SeverityMedium
	case model.SeverityMedium:
		return model.SeverityHigh
	default:
		return model.SeverityHigh
	}
}

func riskID(p *model.ConsolidatedProfile, t model.RiskType) string {
	return fmt.Sprintf("%s:%s", p.ID, t)
}
