package loadgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/classlens/classlens/pkg/logger"
)

// Assessment variants paired with the role allowed to file them.
var variantsByRole = []struct {
	variant string
	role    string
}{
	{"parent_home_checklist", "parent"},
	{"parent_detailed_questionnaire", "parent"},
	{"teacher_classroom_observation", "teacher"},
	{"teacher_structured_assessment", "teacher"},
}

var ageBands = []string{"3-5", "6-8", "9-11"}

// Question keys per variant, matching the extraction question maps.
var questionsByVariant = map[string][]string{
	"parent_home_checklist": {
		"shares_ideas_at_home", "plays_well_with_others",
		"stays_on_task", "joins_family_activity",
	},
	"parent_detailed_questionnaire": {
		"shares_ideas_at_home", "plays_well_with_others", "stays_on_task",
		"joins_family_activity", "invents_games", "tries_new_things",
	},
	"teacher_classroom_observation": {
		"class_discussion", "group_work", "subject_mastery",
		"problem_solving", "attention_span", "hand_raising",
	},
	"teacher_structured_assessment": {
		"class_discussion", "group_work", "subject_mastery",
		"problem_solving", "original_solutions", "self_advocacy",
		"attention_span", "hand_raising",
	},
}

const scoreRange = 5

// randomScore returns a crypto-random score in [1, 5].
func randomScore() int {
	n, _ := rand.Int(rand.Reader, big.NewInt(scoreRange))
	return int(n.Int64()) + 1
}

// randomIndex returns a crypto-random index below n.
func randomIndex(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateSubmissions builds PerChild submissions for each of NumChildren
// synthetic children. Every child keeps a stable name and age band so all
// of its submissions consolidate into one profile.
func generateSubmissions(ctx context.Context, config *Config, stats *Stats) ([]Submission, error) {
	total := config.NumChildren * config.PerChild
	logger.Get().Info(ctx, "generating submissions",
		logger.Int("children", config.NumChildren),
		logger.Int("perChild", config.PerChild),
		logger.Int("total", total))

	subs := make([]Submission, 0, total)
	for child := 0; child < config.NumChildren; child++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}

		name := fmt.Sprintf("Storm Child %s", uuid.New().String()[:8])
		ageBand := ageBands[randomIndex(len(ageBands))]

		for i := 0; i < config.PerChild; i++ {
			pair := variantsByRole[i%len(variantsByRole)]
			subs = append(subs, Submission{
				SubmissionID: uuid.New().String(),
				SubjectName:  name,
				AgeBand:      ageBand,
				Variant:      pair.variant,
				Role:         pair.role,
				Responses:    randomResponses(pair.variant),
			})
		}
	}

	stats.SubmissionsGenerated = len(subs)
	logger.Get().Info(ctx, "generated submissions", logger.Int("count", len(subs)))
	return subs, nil
}

// randomResponses fills every question of the variant with a random score.
func randomResponses(variant string) map[string]any {
	questions := questionsByVariant[variant]
	responses := make(map[string]any, len(questions))
	for _, q := range questions {
		responses[q] = randomScore()
	}
	return responses
}
