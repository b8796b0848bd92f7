// Package compose merges classifier output with the channel validity
// context into the final per-event result table. The masking steps run in
// a fixed order: bad-channel events lose their label and score first, the
// NaN-event flag is derived from the masked values, and the reported
// bad-channel flag itself becomes NaN wherever the event outcome is
// unknown.
package compose

import (
	"fmt"
	"math"
	"strings"

	"hfoclass/internal/errdefs"
	"hfoclass/internal/events"
	"hfoclass/internal/model"
)

// Record is one row of the final result table. Indices are one-based for
// output; Label and IsBadChan use NaN for "unknown".
type Record struct {
	StartIdx   int
	EndIdx     int
	ChanIdx    int
	Label      float64
	ProbHFO    float64
	IsBadChan  float64
	IsNaNEvent float64
}

// Table is the composed result set together with the threshold-derived
// name of its label column.
type Table struct {
	LabelColumn string
	Records     []Record
}

// Columns returns the output column names in order.
func (t *Table) Columns() []string {
	return []string{"start_idx", "end_idx", "chan_idx", t.LabelColumn, "prob_HFO", "is_bad_chan", "is_nan_event"}
}

// LabelColumn derives the binary-label column name from the decision
// threshold, e.g. 0.5 -> "is_HFO_thresh_0_50".
func LabelColumn(threshold float64) string {
	return "is_HFO_thresh_" + strings.ReplaceAll(fmt.Sprintf("%.2f", threshold), ".", "_")
}

// Compose builds the final table from the event set, the classifier
// output, and the channel context. Inputs are not mutated; the bad-channel
// overwrite applies to internal copies.
func Compose(set events.Set, labels, scores []float64, m *model.Descriptor, chans *events.ChannelContext) (*Table, error) {
	n := len(set)
	if len(labels) != n || len(scores) != n {
		return nil, errdefs.Shapef("classifier output length mismatch: events=%d labels=%d scores=%d",
			n, len(labels), len(scores))
	}

	recs := make([]Record, n)
	for i, ev := range set {
		bad, err := chans.IsBad(ev.Chan)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}

		label, score := labels[i], scores[i]
		if bad {
			// Events on bad channels are never classified either way.
			label, score = math.NaN(), math.NaN()
		}

		isNaNEvent := math.IsNaN(label) || math.IsNaN(score)

		isBadChan := asFlag(bad)
		if isNaNEvent {
			isBadChan = math.NaN()
		}

		start, end, ch := ev.OneBased()
		recs[i] = Record{
			StartIdx:   start,
			EndIdx:     end,
			ChanIdx:    ch,
			Label:      label,
			ProbHFO:    score,
			IsBadChan:  isBadChan,
			IsNaNEvent: asFlag(isNaNEvent),
		}
	}

	return &Table{LabelColumn: LabelColumn(m.Threshold), Records: recs}, nil
}

func asFlag(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
