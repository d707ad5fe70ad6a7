package weighting_test

import (
	"testing"

	model "github.com/classlens/classlens/internal/domain/model"
	weighting "github.com/classlens/classlens/internal/domain/weighting"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWeigh(t *testing.T) {
	Convey("Given a weighter with the built-in variant table", t, func() {
		w := weighting.New()

		Convey("When weighing a parent home checklist", func() {
			scores := model.ScoreVector{
				model.DimCommunication: 4,
				model.DimCollaboration: 3,
			}
			r := w.Weigh(model.VariantParentChecklist, scores)

			Convey("Then it carries the checklist policy", func() {
				So(r.Weight, ShouldEqual, 0.5)
				So(r.ConfidenceBoost, ShouldEqual, 25)
			})

			Convey("And covered dimensions equal the extracted ones", func() {
				So(r.DimensionsCovered, ShouldResemble, []string{
					model.DimCollaboration, model.DimCommunication,
				})
			})
		})

		Convey("When weighing a structured teacher assessment", func() {
			r := w.Weigh(model.VariantTeacherStructured, model.ScoreVector{model.DimContent: 5})

			Convey("Then it outweighs the home checklist", func() {
				checklist := w.Weigh(model.VariantParentChecklist, nil)
				So(r.Weight, ShouldBeGreaterThan, checklist.Weight)
				So(r.ConfidenceBoost, ShouldBeGreaterThan, checklist.ConfidenceBoost)
			})
		})

		Convey("When weighing a sparse submission of a wide variant", func() {
			r := w.Weigh(model.VariantTeacherStructured, model.ScoreVector{model.DimContent: 5})

			Convey("Then coverage reflects evidence collected, not the instrument", func() {
				So(r.DimensionsCovered, ShouldResemble, []string{model.DimContent})
			})
		})

		Convey("When the variant is unknown", func() {
			r := w.Weigh(model.Variant("mystery"), nil)

			Convey("Then the conservative default policy applies", func() {
				So(r.Weight, ShouldEqual, 0.4)
				So(r.ConfidenceBoost, ShouldEqual, 15)
			})
		})
	})
}

func TestPolicyOptions(t *testing.T) {
	Convey("Given policy overrides", t, func() {
		Convey("When a single policy is overridden", func() {
			w := weighting.New(weighting.WithPolicy(model.VariantParentChecklist, weighting.Policy{Weight: 0.7, ConfidenceBoost: 40}))
			r := w.Weigh(model.VariantParentChecklist, nil)

			So(r.Weight, ShouldEqual, 0.7)
			So(r.ConfidenceBoost, ShouldEqual, 40)
		})

		Convey("When an override is out of range it is ignored", func() {
			w := weighting.New(weighting.WithPolicy(model.VariantParentChecklist, weighting.Policy{Weight: 1.5, ConfidenceBoost: 40}))
			r := w.Weigh(model.VariantParentChecklist, nil)

			So(r.Weight, ShouldEqual, 0.5)
		})

		Convey("When a table comes from configuration", func() {
			w := weighting.New(weighting.WithPolicyTable(
				map[string]float64{"teacher_classroom_observation": 0.85, "bogus": 7},
				map[string]float64{"teacher_classroom_observation": 33},
			))
			r := w.Weigh(model.VariantTeacherObservation, nil)

			So(r.Weight, ShouldEqual, 0.85)
			So(r.ConfidenceBoost, ShouldEqual, 33)

			Convey("And invalid rows are dropped", func() {
				So(w.Weigh(model.Variant("bogus"), nil).Weight, ShouldEqual, 0.4)
			})
		})
	})
}
