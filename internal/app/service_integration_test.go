package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/classlens/classlens/internal/adapters/repository"
	service "github.com/classlens/classlens/internal/app"
	"github.com/classlens/classlens/internal/domain/model"
	"github.com/classlens/classlens/internal/domain/styles"
	"github.com/classlens/classlens/internal/domain/trend"
)

func teacherObservation(name string) model.Submission {
	return model.Submission{
		SubjectName: name,
		Variant:     model.VariantTeacherObservation,
		Role:        model.RoleTeacher,
		Responses: map[string]any{
			"class_discussion": 5,
			"group_work":       3,
		},
	}
}

func teacherStructured(name string) model.Submission {
	return model.Submission{
		SubjectName: name,
		Variant:     model.VariantTeacherStructured,
		Role:        model.RoleTeacher,
		Responses: map[string]any{
			"class_discussion": 5,
			"group_work":       3,
			"attention_span":   4,
			"hand_raising":     3,
		},
	}
}

// nonMergingStore hides the in-memory store's merge capability so the
// service falls back to read-modify-write consolidation.
type nonMergingStore struct {
	repository.ProfileStore
}

func TestConsolidationJourney(t *testing.T) {
	Convey("Given a started service", t, func() {
		s := startedService(t)
		ctx := context.Background()

		Convey("When a parent checklist arrives for a new child", func() {
			res, err := s.SubmitAssessment(ctx, parentChecklist("Avery Quinn"))
			So(err, ShouldBeNil)

			Convey("Then a profile is created with checklist-level certainty", func() {
				So(res.IsNewProfile, ShouldBeTrue)
				So(res.Confidence, ShouldAlmostEqual, 25.0, 1e-9)
				So(res.Completeness, ShouldAlmostEqual, 25.0, 1e-9)
				So(res.Contribution.Weight, ShouldAlmostEqual, 0.5, 1e-9)
				So(res.Contribution.NewDimensions, ShouldResemble, []string{"collaboration", "communication"})
				So(res.Contribution.Conflicting, ShouldBeFalse)
			})

			Convey("Then the result carries the consolidated profile itself", func() {
				So(res.Profile, ShouldNotBeNil)
				So(res.Profile.ID, ShouldEqual, res.ProfileID)
				So(res.Profile.SubjectKey, ShouldEqual, "avery quinn")
				So(res.Profile.Scores[model.DimCommunication], ShouldAlmostEqual, 4.0, 1e-9)
				So(len(res.Profile.Contributions), ShouldEqual, 1)
			})

			Convey("And when a consistent teacher observation follows", func() {
				res2, err := s.SubmitAssessment(ctx, teacherObservation("avery QUINN"))
				So(err, ShouldBeNil)

				Convey("Then both land on the same profile despite name casing", func() {
					So(res2.IsNewProfile, ShouldBeFalse)
					So(res2.ProfileID, ShouldEqual, res.ProfileID)
				})

				Convey("Then the scores blend by contribution weight", func() {
					p, err := s.Profile(ctx, res.ProfileID)
					So(err, ShouldBeNil)
					So(p.Scores[model.DimCommunication], ShouldAlmostEqual, 6.0/1.3, 1e-9)
					So(p.Scores[model.DimCollaboration], ShouldAlmostEqual, 3.0, 1e-9)
					So(len(p.Contributions), ShouldEqual, 2)
					So(p.RoleCounts[model.RoleParent], ShouldEqual, 1)
					So(p.RoleCounts[model.RoleTeacher], ShouldEqual, 1)
				})

				Convey("Then confidence stacks and completeness creeps", func() {
					So(res2.Contribution.Conflicting, ShouldBeFalse)
					So(res2.Confidence, ShouldAlmostEqual, 55.0, 1e-9)
					So(res2.Completeness, ShouldAlmostEqual, 27.5, 1e-9)
				})
			})

			Convey("And when a sharply disagreeing observation follows", func() {
				sub := teacherObservation("Avery Quinn")
				sub.Responses["class_discussion"] = 1 // parent said 4

				res2, err := s.SubmitAssessment(ctx, sub)
				So(err, ShouldBeNil)

				Convey("Then the contribution is flagged and confidence dampened", func() {
					So(res2.Contribution.Conflicting, ShouldBeTrue)
					So(res2.Confidence, ShouldBeLessThan, res.Confidence+30)
					So(res2.Confidence, ShouldBeLessThan, res.Confidence)
				})
			})
		})

		Convey("When a profile summary is requested", func() {
			res, err := s.SubmitAssessment(ctx, parentChecklist("Avery Quinn"))
			So(err, ShouldBeNil)

			summary, err := s.ProfileSummary(ctx, res.ProfileID)
			So(err, ShouldBeNil)

			Convey("Then it carries the classified learning style", func() {
				So(summary.ProfileID, ShouldEqual, res.ProfileID)
				So(summary.SubjectName, ShouldEqual, "Avery Quinn")
				So(summary.LearningStyle, ShouldEqual, string(styles.Auditory))
				So(summary.Contributions, ShouldEqual, 1)
			})
		})
	})
}

func TestAnalyticsJourney(t *testing.T) {
	Convey("Given a service holding a small classroom", t, func() {
		s := startedService(t)
		ctx := context.Background()

		ids := make([]string, 0, 3)
		for _, name := range []string{"Avery Quinn", "Blake Reed", "Casey Park"} {
			res, err := s.SubmitAssessment(ctx, parentChecklist(name))
			So(err, ShouldBeNil)
			_, err = s.SubmitAssessment(ctx, teacherStructured(name))
			So(err, ShouldBeNil)
			ids = append(ids, res.ProfileID)
		}

		Convey("When a risk report is requested", func() {
			report, err := s.RiskReport(ctx, ids[0])

			Convey("Then it computes without error", func() {
				So(err, ShouldBeNil)
				for _, factor := range report {
					So(model.SeverityRank(factor.Severity), ShouldBeGreaterThan, 0)
				}
			})
		})

		Convey("When classroom analytics run over all profiles", func() {
			summary, err := s.ClassroomAnalytics(ctx, ids)

			Convey("Then the cohort is summarized", func() {
				So(err, ShouldBeNil)
				So(summary.Profiles, ShouldEqual, 3)
				So(summary.AvgEngagement, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When two profiles are scored for compatibility", func() {
			result, err := s.Compatibility(ctx, ids[0], ids[1])

			Convey("Then a bounded score with factors comes back", func() {
				So(err, ShouldBeNil)
				So(result.Score, ShouldBeBetweenOrEqual, 0, 10)
				So(result.StyleA, ShouldNotBeEmpty)
			})
		})

		Convey("When a trend is requested with too little history", func() {
			prediction, err := s.Trend(ctx, ids[0], model.DimCommunication, 4)

			Convey("Then it reports insufficient data instead of guessing", func() {
				So(err, ShouldBeNil)
				So(prediction.InsufficientData, ShouldBeTrue)
				So(prediction.Confidence, ShouldEqual, 0)
			})
		})

		Convey("When enough history accumulates for a trend", func() {
			for i := 0; i < 2; i++ {
				_, err := s.SubmitAssessment(ctx, teacherObservation("Avery Quinn"))
				So(err, ShouldBeNil)
			}

			prediction, err := s.Trend(ctx, ids[0], model.DimCommunication, 4)

			Convey("Then a prediction comes back", func() {
				So(err, ShouldBeNil)
				So(prediction.InsufficientData, ShouldBeFalse)
				So(prediction.Samples, ShouldBeGreaterThanOrEqualTo, trend.MinSamples)
				So(prediction.PredictedValue, ShouldBeBetweenOrEqual, model.ScoreMin, model.ScoreMax)
			})
		})
	})
}

func TestConcurrentSubmissionStorm(t *testing.T) {
	Convey("Given a storm of concurrent submissions for one child", t, func() {
		s := startedService(t)
		ctx := context.Background()

		const workers = 24
		var wg sync.WaitGroup
		type outcome struct {
			profileID string
			err       error
		}
		outcomes := make(chan outcome, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				sub := parentChecklist("Avery Quinn")
				sub.SubmissionID = fmt.Sprintf("storm-%d", n)
				res, err := s.SubmitAssessment(ctx, sub)
				outcomes <- outcome{profileID: res.ProfileID, err: err}
			}(i)
		}
		wg.Wait()
		close(outcomes)

		Convey("Then every submission lands on a single profile", func() {
			var profileID string
			for o := range outcomes {
				So(o.err, ShouldBeNil)
				if profileID == "" {
					profileID = o.profileID
				}
				So(o.profileID, ShouldEqual, profileID)
			}

			So(s.GetStats()["totalProfiles"], ShouldEqual, 1)

			p, err := s.Profile(ctx, profileID)
			So(err, ShouldBeNil)
			So(len(p.Contributions), ShouldEqual, workers)
		})
	})

	Convey("Given a storm against a store without merge support", t, func() {
		s := startedService(t,
			service.WithStore(nonMergingStore{repository.NewMemStore()}),
			service.WithMergeRetries(64),
		)
		ctx := context.Background()

		const workers = 16
		seed, err := s.SubmitAssessment(ctx, parentChecklist("Avery Quinn"))
		So(err, ShouldBeNil)

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				sub := teacherObservation("Avery Quinn")
				sub.SubmissionID = fmt.Sprintf("fallback-storm-%d", n)
				_, err := s.SubmitAssessment(ctx, sub)
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)

		Convey("Then no concurrent contribution is lost to a stale write", func() {
			for err := range errs {
				So(err, ShouldBeNil)
			}

			So(s.GetStats()["totalProfiles"], ShouldEqual, 1)

			p, err := s.Profile(ctx, seed.ProfileID)
			So(err, ShouldBeNil)
			So(len(p.Contributions), ShouldEqual, workers+1)
		})
	})

	Convey("Given a storm across distinct children", t, func() {
		s := startedService(t)
		ctx := context.Background()

		const workers = 20
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, _ = s.SubmitAssessment(ctx, parentChecklist(fmt.Sprintf("Child %02d", n)))
			}(i)
		}
		wg.Wait()

		Convey("Then one profile exists per child", func() {
			So(s.GetStats()["totalProfiles"], ShouldEqual, workers)
		})
	})
}
