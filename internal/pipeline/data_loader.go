package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"hfoclass/internal/errdefs"
	"hfoclass/internal/events"
)

// LoadEvents loads the detected-event records from a CSV or JSON file,
// chosen by extension. Input indices are one-based and converted to the
// zero-based internal representation on construction.
func LoadEvents(path string) (events.Set, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadEventsCSV(path)
	case ".json":
		return loadEventsJSON(path)
	default:
		return nil, fmt.Errorf("cannot determine events file format for: %s", path)
	}
}

var eventFields = []string{"start_idx", "end_idx", "chan_idx"}

func loadEventsCSV(path string) (events.Set, error) {
	file, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read events header: %w", err)
	}

	indices := make(map[string]int)
	for i, col := range header {
		indices[strings.TrimSpace(col)] = i
	}
	for _, f := range eventFields {
		if _, ok := indices[f]; !ok {
			return nil, &errdefs.MissingFieldError{Field: f}
		}
	}

	cols := map[string][]int{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, csv.ErrFieldCount) {
			return nil, errdefs.Shapef("events row %d has %d fields, header has %d",
				len(cols["start_idx"])+1, len(record), len(header))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read events row: %w", err)
		}
		for _, f := range eventFields {
			v, err := parseIndexValue(f, record[indices[f]])
			if err != nil {
				return nil, err
			}
			cols[f] = append(cols[f], v)
		}
	}

	set, err := events.NewSetFromOneBased(cols["start_idx"], cols["end_idx"], cols["chan_idx"])
	if err != nil {
		return nil, err
	}

	log.Info().Str("file", path).Int("events", len(set)).Msg("events loaded")
	return set, nil
}

func loadEventsJSON(path string) (events.Set, error) {
	raw, err := readJSONObject(path)
	if err != nil {
		return nil, err
	}

	cols := map[string][]int{}
	for _, f := range eventFields {
		msg, ok := raw[f]
		if !ok {
			return nil, &errdefs.MissingFieldError{Field: f}
		}

		var vals []float64
		if err := json.Unmarshal(msg, &vals); err != nil {
			return nil, &errdefs.TypeError{Field: f, Want: "a numeric vector"}
		}
		col := make([]int, len(vals))
		for i, v := range vals {
			iv, err := events.AsInt(f, v)
			if err != nil {
				return nil, err
			}
			col[i] = iv
		}
		cols[f] = col
	}

	set, err := events.NewSetFromOneBased(cols["start_idx"], cols["end_idx"], cols["chan_idx"])
	if err != nil {
		return nil, err
	}

	log.Info().Str("file", path).Int("events", len(set)).Msg("events loaded")
	return set, nil
}

// LoadChannelInfo loads the per-channel validity mask and the optional
// channel categorization metadata from a JSON file. Channel index vectors
// are one-based on disk and may be empty.
func LoadChannelInfo(path string) (*events.ChannelContext, error) {
	raw, err := readJSONObject(path)
	if err != nil {
		return nil, err
	}

	maskRaw, ok := raw["good_chan_mask"]
	if !ok {
		return nil, &errdefs.MissingFieldError{Field: "good_chan_mask"}
	}
	var maskVals []float64
	if err := json.Unmarshal(maskRaw, &maskVals); err != nil {
		return nil, &errdefs.TypeError{Field: "good_chan_mask", Want: "a numeric vector"}
	}

	mask := make([]bool, len(maskVals))
	for i, v := range maskVals {
		iv, err := events.AsInt("good_chan_mask", v)
		if err != nil {
			return nil, err
		}
		mask[i] = iv != 0
	}

	ctx := &events.ChannelContext{GoodChanMask: mask}

	ctx.ECoGChans, err = optionalChanIndices(raw, "ecog_chan_idx")
	if err != nil {
		return nil, err
	}
	ctx.DepthChans, err = optionalChanIndices(raw, "depth_chan_idx")
	if err != nil {
		return nil, err
	}

	if fsRaw, ok := raw["fs"]; ok {
		if err := json.Unmarshal(fsRaw, &ctx.SamplingRate); err != nil {
			return nil, &errdefs.TypeError{Field: "fs", Want: "numeric"}
		}
	}

	log.Info().
		Str("file", path).
		Int("channels", ctx.NumChannels()).
		Int("ecog", len(ctx.ECoGChans)).
		Int("depth", len(ctx.DepthChans)).
		Msg("channel info loaded")
	return ctx, nil
}

// optionalChanIndices reads a one-based channel index vector, converting
// to zero-based. Absent or empty vectors yield an empty slice; there is no
// magic sentinel for "no channels of this kind".
func optionalChanIndices(raw map[string]json.RawMessage, field string) ([]int, error) {
	msg, ok := raw[field]
	if !ok {
		return nil, nil
	}

	var vals []float64
	if err := json.Unmarshal(msg, &vals); err != nil {
		return nil, &errdefs.TypeError{Field: field, Want: "a numeric vector"}
	}

	out := make([]int, len(vals))
	for i, v := range vals {
		iv, err := events.AsInt(field, v)
		if err != nil {
			return nil, err
		}
		out[i] = iv - 1
	}
	return out, nil
}

// LoadFeatures loads the N x F feature matrix from a CSV or JSON file.
// The matrix must be rectangular; NaN entries are allowed and propagate
// through scoring.
func LoadFeatures(path string) ([][]float64, error) {
	var (
		x   [][]float64
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		x, err = loadFeaturesCSV(path)
	case ".json":
		x, err = loadFeaturesJSON(path)
	default:
		return nil, fmt.Errorf("cannot determine features file format for: %s", path)
	}
	if err != nil {
		return nil, err
	}

	for i, row := range x {
		if len(row) != len(x[0]) {
			return nil, errdefs.Shapef("feature matrix is not rectangular: row %d has %d columns, row 0 has %d",
				i, len(row), len(x[0]))
		}
	}

	log.Info().Str("file", path).Int("rows", len(x)).Msg("feature matrix loaded")
	return x, nil
}

func loadFeaturesCSV(path string) ([][]float64, error) {
	file, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var x [][]float64
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read feature row: %w", err)
		}

		if first {
			first = false
			if isHeaderRow(record) {
				continue
			}
		}

		row := make([]float64, len(record))
		for j, cell := range record {
			v, err := parseFeatureCell(cell)
			if err != nil {
				return nil, &errdefs.TypeError{Field: fmt.Sprintf("X[%d][%d]", len(x), j), Want: "numeric"}
			}
			row[j] = v
		}
		x = append(x, row)
	}
	return x, nil
}

// isHeaderRow reports whether no cell of the row parses as a number. A row
// mixing numeric and non-numeric cells is corrupt data, not a header.
func isHeaderRow(record []string) bool {
	for _, cell := range record {
		if _, err := parseFeatureCell(cell); err == nil {
			return false
		}
	}
	return len(record) > 0
}

func loadFeaturesJSON(path string) ([][]float64, error) {
	raw, err := readJSONObject(path)
	if err != nil {
		return nil, err
	}

	msg, ok := raw["X"]
	if !ok {
		return nil, &errdefs.MissingFieldError{Field: "X"}
	}

	// null entries stand in for NaN, which JSON cannot carry.
	var rows [][]*float64
	if err := json.Unmarshal(msg, &rows); err != nil {
		return nil, &errdefs.TypeError{Field: "X", Want: "a numeric matrix"}
	}

	x := make([][]float64, len(rows))
	for i, row := range rows {
		x[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				x[i][j] = math.NaN()
			} else {
				x[i][j] = *v
			}
		}
	}
	return x, nil
}

func openInput(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errdefs.NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return file, nil
}

func readJSONObject(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errdefs.NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return raw, nil
}

func parseIndexValue(field, cell string) (int, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, &errdefs.TypeError{Field: field, Want: "numeric"}
	}
	return events.AsInt(field, v)
}

func parseFeatureCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}
