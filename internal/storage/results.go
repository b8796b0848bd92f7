package storage

import (
	"math"

	"hfoclass/internal/compose"
)

// ResultsFromTable converts a composed result table into storable event
// records, replacing NaN with nil.
func ResultsFromTable(runID string, table *compose.Table) []EventResult {
	results := make([]EventResult, len(table.Records))
	for i, r := range table.Records {
		results[i] = EventResult{
			RunID:      runID,
			Seq:        i,
			StartIdx:   r.StartIdx,
			EndIdx:     r.EndIdx,
			ChanIdx:    r.ChanIdx,
			Label:      nullableFloat(r.Label),
			ProbHFO:    nullableFloat(r.ProbHFO),
			IsBadChan:  nullableFloat(r.IsBadChan),
			IsNaNEvent: r.IsNaNEvent,
		}
	}
	return results
}

func nullableFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
