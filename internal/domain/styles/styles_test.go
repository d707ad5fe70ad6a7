package styles_test

import (
	"testing"

	model "github.com/classlens/classlens/internal/domain/model"
	styles "github.com/classlens/classlens/internal/domain/styles"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given consolidated score vectors", t, func() {
		Convey("When the analytical dimensions dominate", func() {
			v := model.ScoreVector{
				model.DimCriticalThinking: 4.8,
				model.DimContent:          4.5,
				model.DimCommunication:    2.5,
				model.DimCollaboration:    2.0,
			}

			Convey("Then the subject classifies as analytical", func() {
				So(styles.Classify(v), ShouldEqual, styles.Analytical)
			})
		})

		Convey("When the social dimensions dominate", func() {
			v := model.ScoreVector{
				model.DimCommunication: 4.9,
				model.DimCollaboration: 4.7,
				model.DimContent:       3.0,
			}

			Convey("Then the subject classifies as auditory", func() {
				So(styles.Classify(v), ShouldEqual, styles.Auditory)
			})
		})

		Convey("When engagement and participation dominate", func() {
			v := model.ScoreVector{
				model.DimEngagement:    4.6,
				model.DimParticipation: 4.4,
				model.DimCreativity:    3.1,
			}

			Convey("Then the subject classifies as kinesthetic", func() {
				So(styles.Classify(v), ShouldEqual, styles.Kinesthetic)
			})
		})

		Convey("When the vector is empty", func() {
			Convey("Then classification falls back to visual", func() {
				So(styles.Classify(model.ScoreVector{}), ShouldEqual, styles.Visual)
			})
		})

		Convey("When only one signature dimension is observed", func() {
			v := model.ScoreVector{model.DimCreativity: 3.0}

			Convey("Then the covered style still wins", func() {
				So(styles.Classify(v), ShouldEqual, styles.Visual)
			})
		})
	})
}

func TestPreferencesFor(t *testing.T) {
	Convey("Given the seating preference table", t, func() {
		Convey("Then every known style has a complete row", func() {
			for _, s := range styles.All {
				p := styles.PreferencesFor(s)
				So(p.GroupSize, ShouldBeGreaterThan, 0)
				So(p.CollaborationComfort, ShouldNotBeEmpty)
				So(p.FocusRequirement, ShouldNotBeEmpty)
				So(p.EnergyLevel, ShouldNotBeEmpty)
				So(p.InteractionRole, ShouldNotBeEmpty)
				So(p.ProximityNeed, ShouldNotBeEmpty)
			}
		})

		Convey("Then an unknown style falls back to the visual row", func() {
			So(styles.PreferencesFor(styles.Style("unknown")), ShouldResemble, styles.PreferencesFor(styles.Visual))
		})
	})
}
