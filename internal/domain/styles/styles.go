// Package styles classifies consolidated score vectors into learning
// styles and derives the seating preferences used for grouping decisions.
package styles

import "github.com/classlens/classlens/internal/domain/model"

// Style is the closed set of learning-style classifications.
type Style string

const (
	Visual      Style = "visual"
	Auditory    Style = "auditory"
	Kinesthetic Style = "kinesthetic"
	Analytical  Style = "analytical"
)

// All lists every known style in a stable order.
var All = []Style{Visual, Auditory, Kinesthetic, Analytical}

// Valid reports whether s is a known style.
func Valid(s Style) bool {
	for _, k := range All {
		if k == s {
			return true
		}
	}
	return false
}

// signature maps each style to the dimensions that characterize it.
var signature = map[Style][]string{
	Visual:      {model.DimCreativity, model.DimConfidence},
	Auditory:    {model.DimCommunication, model.DimCollaboration},
	Kinesthetic: {model.DimEngagement, model.DimParticipation},
	Analytical:  {model.DimCriticalThinking, model.DimContent},
}

// Classify picks the style whose signature dimensions average highest in
// the vector. Dimensions the profile has not observed do not count toward
// any style; a vector with no signature coverage defaults to Visual.
func Classify(v model.ScoreVector) Style {
	best := Visual
	bestAvg := -1.0
	for _, s := range All {
		sum, n := 0.0, 0
		for _, dim := range signature[s] {
			if val, ok := v[dim]; ok {
				sum += val
				n++
			}
		}
		if n == 0 {
			continue
		}
		if avg := sum / float64(n); avg > bestAvg {
			bestAvg = avg
			best = s
		}
	}
	return best
}

// Preferences are per-subject seating attributes derived from the style
// classification. They are views, never independently authored.
type Preferences struct {
	GroupSize            int    `json:"group_size"`
	CollaborationComfort string `json:"collaboration_comfort"`
	FocusRequirement     string `json:"focus_requirement"`
	EnergyLevel          string `json:"energy_level"`
	InteractionRole      string `json:"interaction_role"`
	ProximityNeed        string `json:"proximity_need"`
}

// preferencesByStyle is the fixed derivation table; every style has an
// entry so PreferencesFor is total.
var preferencesByStyle = map[Style]Preferences{
	Visual: {
		GroupSize:            3,
		CollaborationComfort: "medium",
		FocusRequirement:     "medium",
		EnergyLevel:          "medium",
		InteractionRole:      "supporter",
		ProximityNeed:        "front-of-room",
	},
	Auditory: {
		GroupSize:            4,
		CollaborationComfort: "high",
		FocusRequirement:     "low",
		EnergyLevel:          "high",
		InteractionRole:      "facilitator",
		ProximityNeed:        "flexible",
	},
	Kinesthetic: {
		GroupSize:            4,
		CollaborationComfort: "high",
		FocusRequirement:     "medium",
		EnergyLevel:          "high",
		InteractionRole:      "leader",
		ProximityNeed:        "open-space",
	},
	Analytical: {
		GroupSize:            2,
		CollaborationComfort: "low",
		FocusRequirement:     "high",
		EnergyLevel:          "low",
		InteractionRole:      "independent",
		ProximityNeed:        "quiet-zone",
	},
}

// PreferencesFor returns the seating preferences for a style. Unknown
// styles fall back to the Visual row rather than an empty struct.
func PreferencesFor(s Style) Preferences {
	if p, ok := preferencesByStyle[s]; ok {
		return p
	}
	return preferencesByStyle[Visual]
}
