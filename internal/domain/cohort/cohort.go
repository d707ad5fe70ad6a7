// Package cohort aggregates consolidated profiles into classroom-level
// analytics: style distribution, engagement statistics, risk counts, and
// narrative recommendations. Pure read-side computation.
package cohort

import (
	"fmt"

	"github.com/classlens/classlens/internal/domain/model"
	"github.com/classlens/classlens/internal/domain/risk"
	"github.com/classlens/classlens/internal/domain/styles"
)

// Distribution thresholds and recommendation cutoffs.
const (
	dominantShare         = 40.0 // percent of the classroom
	underrepresentedShare = 15.0
	engagementCutoff      = 3.0
	styleEngagementCutoff = 2.75
)

// StyleStats summarizes one learning style's slice of the classroom.
type StyleStats struct {
	Count            int     `json:"count"`
	Percentage       float64 `json:"percentage"`
	AvgEngagement    float64 `json:"avg_engagement"`
	AvgParticipation float64 `json:"avg_participation"`
	Dominant         bool    `json:"dominant"`
	Underrepresented bool    `json:"underrepresented"`
}

// RiskDistribution counts profiles by their highest-severity risk.
type RiskDistribution struct {
	High          int     `json:"high"`
	Medium        int     `json:"medium"`
	Low           int     `json:"low"`
	None          int     `json:"none"`
	PercentAtRisk float64 `json:"percent_at_risk"`
}

// Summary is the classroom-level report.
type Summary struct {
	Profiles         int                          `json:"profiles"`
	Styles           map[styles.Style]StyleStats  `json:"styles"`
	AvgEngagement    float64                      `json:"avg_engagement"`
	AvgParticipation float64                      `json:"avg_participation"`
	AcademicAverage  float64                      `json:"academic_average"`
	Risk             RiskDistribution             `json:"risk"`
	Recommendations  []string                     `json:"recommendations"`
}

// Analyze computes the classroom summary for a set of profiles. An empty
// input produces an empty summary, never an error.
func Analyze(profiles []*model.ConsolidatedProfile) Summary {
	s := Summary{Styles: make(map[styles.Style]StyleStats, len(styles.All))}
	if len(profiles) == 0 {
		return s
	}
	s.Profiles = len(profiles)

	type styleAcc struct {
		count                 int
		engSum, partSum       float64
		engCount, partCount   int
	}
	accs := make(map[styles.Style]*styleAcc, len(styles.All))
	for _, st := range styles.All {
		accs[st] = &styleAcc{}
	}

	var engSum, partSum, acadSum float64
	var engN, partN, acadN int
	for _, p := range profiles {
		st := styles.Classify(p.Scores)
		acc := accs[st]
		acc.count++
		if v, ok := p.Scores[model.DimEngagement]; ok {
			engSum += v
			engN++
			acc.engSum += v
			acc.engCount++
		}
		if v, ok := p.Scores[model.DimParticipation]; ok {
			partSum += v
			partN++
			acc.partSum += v
			acc.partCount++
		}
		if v, ok := risk.AcademicAverage(p.Scores); ok {
			acadSum += v
			acadN++
		}
	}
	if engN > 0 {
		s.AvgEngagement = engSum / float64(engN)
	}
	if partN > 0 {
		s.AvgParticipation = partSum / float64(partN)
	}
	if acadN > 0 {
		s.AcademicAverage = acadSum / float64(acadN)
	}

	for _, st := range styles.All {
		acc := accs[st]
		stats := StyleStats{
			Count:      acc.count,
			Percentage: float64(acc.count) / float64(s.Profiles) * 100,
		}
		if acc.engCount > 0 {
			stats.AvgEngagement = acc.engSum / float64(acc.engCount)
		}
		if acc.partCount > 0 {
			stats.AvgParticipation = acc.partSum / float64(acc.partCount)
		}
		stats.Dominant = stats.Percentage > dominantShare
		stats.Underrepresented = acc.count > 0 && stats.Percentage < underrepresentedShare
		s.Styles[st] = stats
	}

	cohortCtx := risk.CohortAverages{Academic: s.AcademicAverage}
	for _, p := range profiles {
		switch maxSeverity(risk.Assess(p, cohortCtx)) {
		case model.SeverityHigh:
			s.Risk.High++
		case model.SeverityMedium:
			s.Risk.Medium++
		case model.SeverityLow:
			s.Risk.Low++
		default:
			s.Risk.None++
		}
	}
	s.Risk.PercentAtRisk = float64(s.Risk.High+s.Risk.Medium+s.Risk.Low) / float64(s.Profiles) * 100

	s.Recommendations = recommend(s)
	return s
}

// maxSeverity returns the highest severity in a factor list, or "" when
// the list is empty.
func maxSeverity(factors []model.RiskFactor) model.Severity {
	best := model.Severity("")
	for _, f := range factors {
		if model.SeverityRank(f.Severity) > model.SeverityRank(best) {
			best = f.Severity
		}
	}
	return best
}

// recommend derives the narrative recommendation strings from the
// aggregate figures by plain threshold rules.
func recommend(s Summary) []string {
	var out []string
	if s.AvgEngagement > 0 && s.AvgEngagement < engagementCutoff {
		out = append(out, fmt.Sprintf("overall engagement averages %.1f of 5; plan more interactive, student-led activities", s.AvgEngagement))
	}
	for _, st := range styles.All {
		stats := s.Styles[st]
		if stats.Count == 0 {
			continue
		}
		if stats.AvgEngagement > 0 && stats.AvgEngagement < styleEngagementCutoff {
			out = append(out, fmt.Sprintf("%s learners average %.1f engagement; add %s-oriented materials to upcoming lessons", st, stats.AvgEngagement, st))
		}
		if stats.Dominant {
			out = append(out, fmt.Sprintf("%s learners make up %.0f%% of the room; balance lesson formats so other styles are not sidelined", st, stats.Percentage))
		}
	}
	if s.Risk.High > 0 {
		out = append(out, fmt.Sprintf("%d subject(s) carry a high-severity risk factor; review their individual risk reports", s.Risk.High))
	}
	return out
}
