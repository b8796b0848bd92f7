package pipeline

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hfoclass/internal/errdefs"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadEventsCSV(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "events.csv",
		"start_idx,end_idx,chan_idx\n100,150,2\n200,260,3\n")

	set, err := LoadEvents(path)
	require.NoError(t, err)
	require.Len(t, set, 2)

	// One-based on disk, zero-based in memory.
	assert.Equal(t, 99, set[0].Start)
	assert.Equal(t, 149, set[0].End)
	assert.Equal(t, 1, set[0].Chan)
	assert.Equal(t, 2, set[1].Chan)
}

func TestLoadEventsCSVExtraColumns(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "events.csv",
		"event_id,start_idx,end_idx,chan_idx,amplitude\n7,100,150,2,0.5\n")

	set, err := LoadEvents(path)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, 99, set[0].Start)
}

func TestLoadEventsCSVMissingColumn(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "events.csv",
		"start_idx,end_idx\n100,150\n")

	_, err := LoadEvents(path)
	assert.True(t, errdefs.IsMissingField(err), "got %v", err)
}

func TestLoadEventsCSVFractionalIndex(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "events.csv",
		"start_idx,end_idx,chan_idx\n100.5,150,2\n")

	_, err := LoadEvents(path)
	assert.True(t, errdefs.IsRange(err), "got %v", err)
}

func TestLoadEventsCSVShortRow(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "events.csv",
		"start_idx,end_idx,chan_idx\n100,150,2\n200,260\n")

	_, err := LoadEvents(path)
	assert.True(t, errdefs.IsShape(err), "got %v", err)
}

func TestLoadEventsCSVMalformedQuoting(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "events.csv",
		"start_idx,end_idx,chan_idx\n100,150,2\n\"200,260,3\n")

	_, err := LoadEvents(path)
	assert.Error(t, err, "a malformed row must not truncate the event set")
}

func TestLoadEventsJSON(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "events.json",
		`{"start_idx": [100, 200], "end_idx": [150, 260], "chan_idx": [2, 3]}`)

	set, err := LoadEvents(path)
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, 99, set[0].Start)
	assert.Equal(t, 2, set[1].Chan)
}

func TestLoadEventsJSONMissingField(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "events.json",
		`{"start_idx": [100], "end_idx": [150]}`)

	_, err := LoadEvents(path)
	assert.True(t, errdefs.IsMissingField(err), "got %v", err)
}

func TestLoadEventsUnknownExtension(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "events.txt", "whatever")

	_, err := LoadEvents(path)
	assert.Error(t, err)
}

func TestLoadEventsMissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadEvents(filepath.Join(t.TempDir(), "absent.csv"))
	assert.True(t, errdefs.IsNotFound(err), "got %v", err)
}

func TestLoadChannelInfo(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "channels.json",
		`{"good_chan_mask": [1, 0, 1, 1], "ecog_chan_idx": [1, 3], "depth_chan_idx": [4], "fs": 2000}`)

	ctx, err := LoadChannelInfo(path)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, true}, ctx.GoodChanMask)
	assert.Equal(t, []int{0, 2}, ctx.ECoGChans)
	assert.Equal(t, []int{3}, ctx.DepthChans)
	assert.Equal(t, 2000.0, ctx.SamplingRate)
}

func TestLoadChannelInfoMaskOnly(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "channels.json",
		`{"good_chan_mask": [1, 1]}`)

	ctx, err := LoadChannelInfo(path)
	require.NoError(t, err)
	assert.Equal(t, 2, ctx.NumChannels())
	assert.Empty(t, ctx.ECoGChans)
	assert.Empty(t, ctx.DepthChans)
	assert.Zero(t, ctx.SamplingRate)
}

func TestLoadChannelInfoMissingMask(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "channels.json", `{"fs": 2000}`)

	_, err := LoadChannelInfo(path)
	assert.True(t, errdefs.IsMissingField(err), "got %v", err)
}

func TestLoadChannelInfoNonIntegerMask(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "channels.json",
		`{"good_chan_mask": [1, 0.5]}`)

	_, err := LoadChannelInfo(path)
	assert.True(t, errdefs.IsRange(err), "got %v", err)
}

func TestLoadFeaturesCSV(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "features.csv",
		"f0,f1,f2\n1.5,2.0,3.0\nNaN,0.5,")

	x, err := LoadFeatures(path)
	require.NoError(t, err)
	require.Len(t, x, 2)
	assert.Equal(t, []float64{1.5, 2.0, 3.0}, x[0])
	assert.True(t, math.IsNaN(x[1][0]))
	assert.Equal(t, 0.5, x[1][1])
	assert.True(t, math.IsNaN(x[1][2]), "empty cell reads as NaN")
}

func TestLoadFeaturesCSVNoHeader(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "features.csv",
		"1.5,2.0\n3.0,4.0\n")

	x, err := LoadFeatures(path)
	require.NoError(t, err)
	require.Len(t, x, 2)
	assert.Equal(t, []float64{1.5, 2.0}, x[0])
}

func TestLoadFeaturesCSVCorruptFirstRow(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "features.csv",
		"1.0,abc\n2.0,3.0\n")

	_, err := LoadFeatures(path)
	assert.True(t, errdefs.IsType(err), "a part-numeric first row is corrupt data, not a header; got %v", err)
}

func TestLoadFeaturesCSVMalformedQuoting(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "features.csv",
		"1.0,2.0\n\"3.0,4.0\n")

	_, err := LoadFeatures(path)
	assert.Error(t, err, "a malformed row must not truncate the matrix")
}

func TestLoadFeaturesCSVRagged(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "features.csv",
		"1.0,2.0\n3.0,4.0,5.0\n")

	_, err := LoadFeatures(path)
	assert.True(t, errdefs.IsShape(err), "got %v", err)
}

func TestLoadFeaturesJSON(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "features.json",
		`{"X": [[1.5, 2.0], [null, 0.5]]}`)

	x, err := LoadFeatures(path)
	require.NoError(t, err)
	require.Len(t, x, 2)
	assert.Equal(t, []float64{1.5, 2.0}, x[0])
	assert.True(t, math.IsNaN(x[1][0]), "null reads as NaN")
}

func TestLoadFeaturesJSONMissingKey(t *testing.T) {
	t.Parallel()
	path := writeFile(t, t.TempDir(), "features.json", `{"Y": [[1.0]]}`)

	_, err := LoadFeatures(path)
	assert.True(t, errdefs.IsMissingField(err), "got %v", err)
}
