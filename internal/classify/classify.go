// Package classify implements the scoring core: per-feature
// standardization, the linear model, the logistic link, and NaN-aware
// thresholding. All functions are pure over their inputs; NaN features
// propagate arithmetically into NaN scores and labels by design.
package classify

import (
	"math"

	"hfoclass/internal/errdefs"
	"hfoclass/internal/model"
)

// Score computes the linear score z for each row of x:
//
//	z = dot((x - mean) / std, coefficients) + intercept
//
// Every row must have exactly NumFeatures columns; a mismatch fails
// before any computation.
func Score(x [][]float64, m *model.Descriptor) ([]float64, error) {
	nf := m.NumFeatures()
	for i, row := range x {
		if len(row) != nf {
			return nil, errdefs.Shapef("feature row %d has %d columns, model expects %d", i, len(row), nf)
		}
	}

	z := make([]float64, len(x))
	for i, row := range x {
		s := m.Intercept
		for j, v := range row {
			s += (v - m.Mean[j]) / m.Std[j] * m.Coefficients[j]
		}
		z[i] = s
	}
	return z, nil
}

// Sigmoid maps a linear score to a probability in [0,1]. The two-branch
// form avoids overflow of exp for large |z|. NaN passes through.
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// Classify scores every event row and thresholds the resulting
// probabilities into binary labels. Labels start as NaN and are only set
// where the score is defined: 1.0 when score is strictly greater than the
// model threshold, 0.0 otherwise. Ties at the threshold classify as 0.0.
func Classify(x [][]float64, m *model.Descriptor) (labels, scores []float64, err error) {
	z, err := Score(x, m)
	if err != nil {
		return nil, nil, err
	}

	scores = make([]float64, len(z))
	labels = make([]float64, len(z))
	for i, v := range z {
		scores[i] = Sigmoid(v)
		if math.IsNaN(scores[i]) {
			labels[i] = math.NaN()
			continue
		}
		if scores[i] > m.Threshold {
			labels[i] = 1.0
		} else {
			labels[i] = 0.0
		}
	}
	return labels, scores, nil
}
