package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"hfoclass/internal/errdefs"
)

var requiredFields = []string{"coefficients", "intercept", "threshold", "mean", "std"}

// Load reads a model JSON file from disk and returns a validated Descriptor.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errdefs.NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("read model file %s: %w", path, err)
	}

	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("model file %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("features", d.NumFeatures()).
		Float64("threshold", d.Threshold).
		Msg("model loaded")
	return d, nil
}

// Parse decodes and validates a serialized model. Vector fields may be
// nested one level (a single row of a matrix) and are flattened; intercept
// and threshold may be bare scalars or single-element arrays. Only the
// binary single-row case is supported.
func Parse(data []byte) (*Descriptor, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse model JSON: %w", err)
	}
	if len(raw) == 0 {
		return nil, &errdefs.MissingFieldError{Field: "coefficients"}
	}

	for _, f := range requiredFields {
		if _, ok := raw[f]; !ok {
			return nil, &errdefs.MissingFieldError{Field: f}
		}
	}

	coef, err := flatten("coefficients", raw["coefficients"])
	if err != nil {
		return nil, err
	}
	mean, err := flatten("mean", raw["mean"])
	if err != nil {
		return nil, err
	}
	std, err := flatten("std", raw["std"])
	if err != nil {
		return nil, err
	}
	intercept, err := scalar("intercept", raw["intercept"])
	if err != nil {
		return nil, err
	}
	threshold, err := scalar("threshold", raw["threshold"])
	if err != nil {
		return nil, err
	}

	d := &Descriptor{
		Coefficients: coef,
		Intercept:    intercept,
		Threshold:    threshold,
		Mean:         mean,
		Std:          std,
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// flatten decodes a numeric vector that may be wrapped in one extra level
// of nesting, e.g. [[0.1, 0.2]] for a single-row coefficient matrix.
func flatten(field string, raw json.RawMessage) ([]float64, error) {
	var flat []float64
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	var nested [][]float64
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, &errdefs.TypeError{Field: field, Want: "a numeric vector"}
	}
	if len(nested) != 1 {
		return nil, errdefs.Shapef("field %q must have a single row, got %d", field, len(nested))
	}
	return nested[0], nil
}

// scalar decodes a value that may be a bare number or a one-element array.
func scalar(field string, raw json.RawMessage) (float64, error) {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}

	var vec []float64
	if err := json.Unmarshal(raw, &vec); err != nil {
		return 0, &errdefs.TypeError{Field: field, Want: "a numeric scalar"}
	}
	if len(vec) != 1 {
		return 0, &errdefs.TypeError{Field: field, Want: "a numeric scalar"}
	}
	return vec[0], nil
}
