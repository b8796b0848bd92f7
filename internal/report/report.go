// Package report persists the composed result table: a CSV file with one
// row per event plus a JSON summary of the run. Output is written only
// after the full table exists, so a failed run leaves no partial file.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"hfoclass/internal/compose"
)

// Writer writes run artifacts into a single output directory.
type Writer struct {
	outputDir string
}

// NewWriter creates a writer rooted at outputDir. The directory is created
// on first write.
func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// WriteCSV writes the result table to filename inside the output
// directory. Undefined values are written as "NaN".
func (w *Writer) WriteCSV(filename string, table *compose.Table) error {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(w.outputDir, filename)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results file: %w", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	defer cw.Flush()

	if err := cw.Write(table.Columns()); err != nil {
		return err
	}

	for _, r := range table.Records {
		record := []string{
			strconv.Itoa(r.StartIdx),
			strconv.Itoa(r.EndIdx),
			strconv.Itoa(r.ChanIdx),
			formatValue(r.Label),
			formatValue(r.ProbHFO),
			formatValue(r.IsBadChan),
			formatValue(r.IsNaNEvent),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	log.Info().Str("file", path).Int("events", len(table.Records)).Msg("results written")
	return nil
}

// RunSummary aggregates a finished classification run.
type RunSummary struct {
	GeneratedAt   time.Time     `json:"generated_at"`
	Events        int           `json:"events"`
	HFOCount      int           `json:"hfo_count"`
	ArtifactCount int           `json:"artifact_count"`
	NaNEvents     int           `json:"nan_events"`
	BadChanEvents int           `json:"bad_chan_events"`
	Threshold     float64       `json:"threshold"`
	SamplingRate  float64       `json:"sampling_rate,omitempty"`
	Duration      time.Duration `json:"duration_ns"`
}

// Summarize counts the label outcomes of a composed table. The
// bad-channel count is not derivable from the table (the output flag is
// NaN for every unknown outcome); the caller fills it in from the channel
// context.
func Summarize(table *compose.Table, threshold float64) RunSummary {
	s := RunSummary{
		GeneratedAt: time.Now().UTC(),
		Events:      len(table.Records),
		Threshold:   threshold,
	}
	for _, r := range table.Records {
		switch {
		case r.Label == 1.0:
			s.HFOCount++
		case r.Label == 0.0:
			s.ArtifactCount++
		}
		if r.IsNaNEvent == 1.0 {
			s.NaNEvents++
		}
	}
	return s
}

// WriteSummary writes the run summary as indented JSON next to the CSV.
func (w *Writer) WriteSummary(filename string, s RunSummary) error {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}

	path := filepath.Join(w.outputDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write run summary: %w", err)
	}

	log.Info().Str("file", path).Msg("run summary written")
	return nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
