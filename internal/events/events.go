// Package events holds the detected-event records and per-channel validity
// context handed to the classifier. Indices are one-based in persisted
// inputs and outputs; conversion to the zero-based working representation
// happens exactly once, here, at construction.
package events

import (
	"math"

	"hfoclass/internal/errdefs"
)

// Event is a single detected HFO candidate. All indices are zero-based.
type Event struct {
	Start int
	End   int
	Chan  int
}

// OneBased returns the event's indices in the external one-based convention.
func (e Event) OneBased() (start, end, ch int) {
	return e.Start + 1, e.End + 1, e.Chan + 1
}

// Set is an ordered collection of events.
type Set []Event

// NewSetFromOneBased builds a Set from parallel one-based index columns,
// converting to the zero-based internal representation.
func NewSetFromOneBased(start, end, ch []int) (Set, error) {
	if len(start) != len(end) || len(end) != len(ch) {
		return nil, errdefs.Shapef("event columns must be the same length: start_idx=%d end_idx=%d chan_idx=%d",
			len(start), len(end), len(ch))
	}

	set := make(Set, len(start))
	for i := range start {
		set[i] = Event{Start: start[i] - 1, End: end[i] - 1, Chan: ch[i] - 1}
	}
	return set, nil
}

// AsInt validates that v is an integer-valued number and returns it as int.
// Values with a nonzero fractional part are rejected rather than truncated.
func AsInt(field string, v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &errdefs.TypeError{Field: field, Want: "a finite integer"}
	}
	if v != math.Trunc(v) {
		return 0, errdefs.Rangef(field, "value %v is not an integer", v)
	}
	return int(v), nil
}
