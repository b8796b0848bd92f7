// Package errdefs defines the typed validation errors raised at the
// boundaries of the classification pipeline. Loaders and the core reject
// malformed inputs with one of these types so callers can distinguish a
// missing field from a shape mismatch without string matching.
package errdefs

import (
	"errors"
	"fmt"
)

// MissingFieldError reports a required field or column absent from an input.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field %q is missing", e.Field)
}

// ShapeError reports a length or dimension mismatch between inputs.
type ShapeError struct {
	msg string
}

func (e *ShapeError) Error() string { return e.msg }

// Shapef builds a ShapeError from a format string.
func Shapef(format string, args ...any) error {
	return &ShapeError{msg: fmt.Sprintf(format, args...)}
}

// TypeError reports a non-numeric value where a numeric one is expected.
type TypeError struct {
	Field string
	Want  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("field %q must be %s", e.Field, e.Want)
}

// RangeError reports a value outside its allowed range, including
// index fields carrying a nonzero fractional part.
type RangeError struct {
	Field string
	msg   string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("field %q out of range: %s", e.Field, e.msg)
}

// Rangef builds a RangeError for the given field.
func Rangef(field, format string, args ...any) error {
	return &RangeError{Field: field, msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an absent input resource.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Path)
}

func IsMissingField(err error) bool {
	var e *MissingFieldError
	return errors.As(err, &e)
}

func IsShape(err error) bool {
	var e *ShapeError
	return errors.As(err, &e)
}

func IsType(err error) bool {
	var e *TypeError
	return errors.As(err, &e)
}

func IsRange(err error) bool {
	var e *RangeError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}
