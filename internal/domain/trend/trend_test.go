package trend

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/classlens/classlens/internal/domain/model"
)

func samplesAt(max float64, values ...float64) []model.ProgressSample {
	base := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	out := make([]model.ProgressSample, 0, len(values))
	for i, v := range values {
		out = append(out, model.ProgressSample{
			Date:     base.AddDate(0, 0, 7*i),
			Metric:   model.DimEngagement,
			Value:    v,
			MaxValue: max,
		})
	}
	return out
}

func TestPredict(t *testing.T) {
	Convey("Given a steadily improving history", t, func() {
		history := samplesAt(5, 2, 2.5, 3, 3.5, 4)

		Convey("When predicting two steps ahead", func() {
			p := Predict(model.DimEngagement, history, 2)

			Convey("Then the direction is improving with a positive slope", func() {
				So(p.InsufficientData, ShouldBeFalse)
				So(p.Direction, ShouldEqual, Improving)
				So(p.Slope, ShouldAlmostEqual, 0.1, 1e-9)
			})

			Convey("Then the extrapolation lands on the fitted line", func() {
				So(p.PredictedValue, ShouldAlmostEqual, 5.0, 1e-9)
			})

			Convey("Then confidence blends sample count and magnitude", func() {
				So(p.Confidence, ShouldAlmostEqual, 0.6*(5.0/8.0)+0.4, 1e-9)
			})
		})
	})

	Convey("Given a declining history", t, func() {
		p := Predict(model.DimContent, samplesAt(5, 4, 3.5, 3), 1)

		Convey("Then the direction is declining", func() {
			So(p.Direction, ShouldEqual, Declining)
			So(p.Slope, ShouldAlmostEqual, -0.1, 1e-9)
		})
	})

	Convey("Given a flat history", t, func() {
		p := Predict(model.DimContent, samplesAt(5, 3, 3, 3), 4)

		Convey("Then the direction is stable and magnitude adds nothing", func() {
			So(p.Direction, ShouldEqual, Stable)
			So(p.Slope, ShouldAlmostEqual, 0, 1e-9)
			So(p.PredictedValue, ShouldAlmostEqual, 3.0, 1e-9)
			So(p.Confidence, ShouldAlmostEqual, 0.6*(3.0/8.0), 1e-9)
		})
	})

	Convey("Given fewer than three usable samples", t, func() {
		p := Predict(model.DimCreativity, samplesAt(5, 2, 4), 3)

		Convey("Then the result is an explicit insufficient-data answer", func() {
			So(p.InsufficientData, ShouldBeTrue)
			So(p.Samples, ShouldEqual, 2)
			So(p.Confidence, ShouldEqual, 0)
			So(p.Direction, ShouldEqual, Stable)
		})
	})

	Convey("Given samples arriving out of date order", t, func() {
		history := samplesAt(5, 2, 3, 4)
		history[0], history[2] = history[2], history[0]

		Convey("Then the fit still sees a rising series", func() {
			p := Predict(model.DimEngagement, history, 1)
			So(p.Direction, ShouldEqual, Improving)
		})
	})

	Convey("Given a steep climb near the top of the scale", t, func() {
		p := Predict(model.DimConfidence, samplesAt(5, 3.5, 4.25, 5), 3)

		Convey("Then the extrapolation clamps to the valid range", func() {
			So(p.PredictedValue, ShouldEqual, model.ScoreMax)
		})
	})

	Convey("Given a sample with a non-positive scale", t, func() {
		history := samplesAt(5, 2, 3, 4)
		history = append(history, model.ProgressSample{
			Date:   time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
			Metric: model.DimEngagement,
		})

		Convey("Then the broken point is skipped", func() {
			p := Predict(model.DimEngagement, history, 1)
			So(p.Samples, ShouldEqual, 3)
			So(p.InsufficientData, ShouldBeFalse)
		})
	})

	Convey("Given a non-positive horizon", t, func() {
		p := Predict(model.DimEngagement, samplesAt(5, 2, 3, 4), 0)

		Convey("Then it is coerced to one step", func() {
			So(p.Horizon, ShouldEqual, 1)
		})
	})
}
