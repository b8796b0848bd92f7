package storage

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hfoclass/internal/compose"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreAndGetRun(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	run := RunRecord{
		RunID:         "20260825-101500",
		StartedAt:     time.Now().UTC().Truncate(time.Second),
		ModelPath:     "model/model.json",
		Threshold:     0.5,
		Events:        3,
		HFOCount:      1,
		ArtifactCount: 1,
		NaNEvents:     1,
		BadChanEvents: 1,
	}
	require.NoError(t, store.StoreRun(run))

	got, err := store.GetRun(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestGetRunMissing(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	_, err := store.GetRun("nope")
	assert.Error(t, err)
}

func TestStoreAndGetResults(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	table := &compose.Table{
		LabelColumn: compose.LabelColumn(0.5),
		Records: []compose.Record{
			{StartIdx: 100, EndIdx: 150, ChanIdx: 1, Label: 1.0, ProbHFO: 0.88, IsBadChan: 0.0, IsNaNEvent: 0.0},
			{StartIdx: 200, EndIdx: 260, ChanIdx: 2, Label: math.NaN(), ProbHFO: math.NaN(), IsBadChan: math.NaN(), IsNaNEvent: 1.0},
		},
	}
	results := ResultsFromTable("run-a", table)
	require.NoError(t, store.StoreResults(results))

	// A second run must not leak into the first run's prefix scan.
	other := ResultsFromTable("run-b", table)
	require.NoError(t, store.StoreResults(other))

	got, err := store.GetResults("run-a")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 100, got[0].StartIdx)
	require.NotNil(t, got[0].Label)
	assert.Equal(t, 1.0, *got[0].Label)
	require.NotNil(t, got[0].ProbHFO)
	assert.Equal(t, 0.88, *got[0].ProbHFO)

	assert.Nil(t, got[1].Label)
	assert.Nil(t, got[1].ProbHFO)
	assert.Nil(t, got[1].IsBadChan)
	assert.Equal(t, 1.0, got[1].IsNaNEvent)
}

func TestResultsPreserveEventOrder(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	table := &compose.Table{Records: make([]compose.Record, 20)}
	for i := range table.Records {
		table.Records[i] = compose.Record{StartIdx: i + 1, EndIdx: i + 2, ChanIdx: 1}
	}
	require.NoError(t, store.StoreResults(ResultsFromTable("ordered", table)))

	got, err := store.GetResults("ordered")
	require.NoError(t, err)
	require.Len(t, got, 20)
	for i, r := range got {
		assert.Equal(t, i, r.Seq)
		assert.Equal(t, i+1, r.StartIdx)
	}
}

func TestListRuns(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	require.NoError(t, store.StoreRun(RunRecord{RunID: "a", Events: 1}))
	require.NoError(t, store.StoreRun(RunRecord{RunID: "b", Events: 2}))

	runs, err := store.ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
