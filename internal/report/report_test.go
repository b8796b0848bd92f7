package report

import (
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hfoclass/internal/compose"
)

func sampleTable() *compose.Table {
	return &compose.Table{
		LabelColumn: compose.LabelColumn(0.5),
		Records: []compose.Record{
			{StartIdx: 100, EndIdx: 150, ChanIdx: 1, Label: 1.0, ProbHFO: 0.88, IsBadChan: 0.0, IsNaNEvent: 0.0},
			{StartIdx: 200, EndIdx: 260, ChanIdx: 2, Label: math.NaN(), ProbHFO: math.NaN(), IsBadChan: math.NaN(), IsNaNEvent: 1.0},
			{StartIdx: 300, EndIdx: 320, ChanIdx: 1, Label: 0.0, ProbHFO: 0.12, IsBadChan: 0.0, IsNaNEvent: 0.0},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewWriter(dir)
	require.NoError(t, w.WriteCSV("classified.csv", sampleTable()))

	file, err := os.Open(filepath.Join(dir, "classified.csv"))
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{
		"start_idx", "end_idx", "chan_idx",
		"is_HFO_thresh_0_50", "prob_HFO", "is_bad_chan", "is_nan_event",
	}, rows[0])

	assert.Equal(t, []string{"100", "150", "1", "1", "0.88", "0", "0"}, rows[1])
	assert.Equal(t, []string{"200", "260", "2", "NaN", "NaN", "NaN", "1"}, rows[2])
	assert.Equal(t, []string{"300", "320", "1", "0", "0.12", "0", "0"}, rows[3])
}

func TestWriteCSVCreatesOutputDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "outputs")
	w := NewWriter(dir)
	require.NoError(t, w.WriteCSV("out.csv", sampleTable()))

	_, err := os.Stat(filepath.Join(dir, "out.csv"))
	assert.NoError(t, err)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := Summarize(sampleTable(), 0.5)
	assert.Equal(t, 3, s.Events)
	assert.Equal(t, 1, s.HFOCount)
	assert.Equal(t, 1, s.ArtifactCount)
	assert.Equal(t, 1, s.NaNEvents)
	assert.Equal(t, 0.5, s.Threshold)
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := NewWriter(dir)

	s := Summarize(sampleTable(), 0.5)
	s.BadChanEvents = 1
	s.SamplingRate = 2000
	require.NoError(t, w.WriteSummary("summary.json", s))

	data, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)

	var got RunSummary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 3, got.Events)
	assert.Equal(t, 1, got.BadChanEvents)
	assert.Equal(t, 2000.0, got.SamplingRate)
}
