// Package model loads and validates the pretrained logistic-regression
// model used to score HFO events. A Descriptor is built once from its
// persisted JSON form, validated at that boundary, and treated as
// immutable for the rest of the run.
package model

import (
	"hfoclass/internal/errdefs"
)

// Descriptor holds the parameters of a binary logistic-regression model.
// Coefficients, Mean and Std are feature-ordered and equal length.
type Descriptor struct {
	Coefficients []float64
	Intercept    float64
	Threshold    float64
	Mean         []float64
	Std          []float64
}

// NumFeatures returns the feature count F the model was trained on.
func (d *Descriptor) NumFeatures() int {
	return len(d.Coefficients)
}

// Validate checks the cross-field invariants: equal-length vector fields
// and a decision threshold inside [0,1]. Std entries are not checked for
// zero; division by zero propagates as NaN/Inf through scoring.
func (d *Descriptor) Validate() error {
	if len(d.Coefficients) != len(d.Mean) || len(d.Mean) != len(d.Std) {
		return errdefs.Shapef("model vectors must be the same length: coefficients=%d mean=%d std=%d",
			len(d.Coefficients), len(d.Mean), len(d.Std))
	}
	if d.Threshold < 0 || d.Threshold > 1 {
		return errdefs.Rangef("threshold", "got %v, want [0,1]", d.Threshold)
	}
	return nil
}
