// Package trend fits ordinary least-squares lines to progress histories
// and extrapolates future values with an explicit confidence figure.
package trend

import (
	"math"
	"sort"

	"github.com/classlens/classlens/internal/domain/model"
)

// MinSamples is the fewest points a fit will accept; below it the
// result is an explicit insufficient-data answer, never a fabricated
// prediction.
const MinSamples = 3

// Fit tunables. Slopes are in normalized (0-1) units per sample step.
const (
	slopeThreshold   = 0.02
	sampleSaturation = 8.0
	slopeSaturation  = 0.1
	sampleWeight     = 0.6
	magnitudeWeight  = 0.4
)

// Direction classifies a fitted slope.
type Direction string

const (
	Improving Direction = "improving"
	Declining Direction = "declining"
	Stable    Direction = "stable"
)

// Prediction is the trend result for one dimension.
type Prediction struct {
	Dimension        string    `json:"dimension"`
	Direction        Direction `json:"direction"`
	Slope            float64   `json:"slope"`
	PredictedValue   float64   `json:"predicted_value"`
	Horizon          int       `json:"horizon"`
	Confidence       float64   `json:"confidence"`
	Samples          int       `json:"samples"`
	InsufficientData bool      `json:"insufficient_data"`
}

// Predict fits a line over sample index vs normalized value and
// extrapolates horizon steps past the last sample. Samples with a
// non-positive MaxValue are skipped. Confidence blends sample count
// (60%, saturating at eight points) with trend magnitude (40%,
// saturating at a 0.1 normalized slope).
func Predict(dimension string, samples []model.ProgressSample, horizon int) Prediction {
	p := Prediction{Dimension: dimension, Horizon: horizon, Direction: Stable}

	points := normalize(samples)
	p.Samples = len(points)
	if len(points) < MinSamples {
		p.InsufficientData = true
		return p
	}
	if horizon < 1 {
		horizon = 1
		p.Horizon = horizon
	}

	slope, intercept := fitLine(points)
	p.Slope = slope

	switch {
	case slope > slopeThreshold:
		p.Direction = Improving
	case slope < -slopeThreshold:
		p.Direction = Declining
	}

	predictedNorm := intercept + slope*float64(len(points)-1+horizon)
	p.PredictedValue = clampScore(predictedNorm * model.ScoreMax)

	sampleFactor := math.Min(1, float64(len(points))/sampleSaturation)
	magnitudeFactor := math.Min(1, math.Abs(slope)/slopeSaturation)
	p.Confidence = sampleWeight*sampleFactor + magnitudeWeight*magnitudeFactor

	return p
}

// normalize orders samples by date and maps values into 0-1.
func normalize(samples []model.ProgressSample) []float64 {
	ordered := append([]model.ProgressSample(nil), samples...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	out := make([]float64, 0, len(ordered))
	for _, s := range ordered {
		if s.MaxValue <= 0 {
			continue
		}
		v := s.Value / s.MaxValue
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		out = append(out, v)
	}
	return out
}

// fitLine computes ordinary least squares over (index, value).
func fitLine(points []float64) (slope, intercept float64) {
	n := float64(len(points))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range points {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

func clampScore(v float64) float64 {
	return math.Min(model.ScoreMax, math.Max(model.ScoreMin, v))
}
