// Package pipeline ties the classification run together: it loads the
// model, events, channel info, and feature matrix through the boundary
// validators, invokes the classifier, composes the final table, and hands
// the result to the CSV writer and the optional run store. The run is a
// single synchronous batch pass; it either produces a complete result
// table or fails with a typed error before any output is written.
package pipeline

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"hfoclass/internal/cfg"
	"hfoclass/internal/classify"
	"hfoclass/internal/compose"
	"hfoclass/internal/errdefs"
	"hfoclass/internal/model"
	"hfoclass/internal/report"
	"hfoclass/internal/storage"
)

// MetricsRecorder is the subset of metrics the pipeline reports.
type MetricsRecorder interface {
	EventsClassifiedAdd(n int)
	HFOsAdd(n int)
	ArtifactsAdd(n int)
	NaNEventsAdd(n int)
	BadChanEventsAdd(n int)
	LoadErrorsInc()
	DurationObserve(seconds float64)
	ScoreObserve(score float64)
	ModelAgeSet(seconds float64)
}

// Runner executes one classification run from configured inputs to
// persisted outputs.
type Runner struct {
	settings cfg.Settings
	rec      MetricsRecorder
	store    *storage.Store // nil disables run persistence
}

// NewRunner creates a runner. store may be nil.
func NewRunner(settings cfg.Settings, rec MetricsRecorder, store *storage.Store) *Runner {
	return &Runner{settings: settings, rec: rec, store: store}
}

// Run performs the batch classification pass.
func (r *Runner) Run() (report.RunSummary, error) {
	start := time.Now()
	log.Info().Str("model", r.settings.ModelPath).Msg("starting HFO classification")

	if info, err := os.Stat(r.settings.ModelPath); err == nil {
		r.rec.ModelAgeSet(time.Since(info.ModTime()).Seconds())
	}

	m, err := model.Load(r.settings.ModelPath)
	if err != nil {
		r.rec.LoadErrorsInc()
		return report.RunSummary{}, err
	}

	set, err := LoadEvents(r.settings.EventsPath)
	if err != nil {
		r.rec.LoadErrorsInc()
		return report.RunSummary{}, err
	}

	chans, err := LoadChannelInfo(r.settings.ChannelInfoPath)
	if err != nil {
		r.rec.LoadErrorsInc()
		return report.RunSummary{}, err
	}

	x, err := LoadFeatures(r.settings.FeaturesPath)
	if err != nil {
		r.rec.LoadErrorsInc()
		return report.RunSummary{}, err
	}
	if len(x) != len(set) {
		r.rec.LoadErrorsInc()
		return report.RunSummary{}, errdefs.Shapef("feature matrix has %d rows for %d events", len(x), len(set))
	}

	labels, scores, err := classify.Classify(x, m)
	if err != nil {
		return report.RunSummary{}, err
	}

	table, err := compose.Compose(set, labels, scores, m, chans)
	if err != nil {
		return report.RunSummary{}, err
	}

	summary := report.Summarize(table, m.Threshold)
	summary.SamplingRate = chans.SamplingRate
	summary.Duration = time.Since(start)
	for _, ev := range set {
		bad, err := chans.IsBad(ev.Chan)
		if err == nil && bad {
			summary.BadChanEvents++
		}
	}

	writer := report.NewWriter(r.settings.OutputDir)
	if err := writer.WriteCSV(r.settings.ResultsFile, table); err != nil {
		return report.RunSummary{}, err
	}
	if err := writer.WriteSummary(summaryFilename(r.settings.ResultsFile), summary); err != nil {
		return report.RunSummary{}, err
	}

	r.recordMetrics(summary, table, start)

	if r.store != nil {
		if err := r.persistRun(start, m, summary, table); err != nil {
			// The CSV is already on disk; a storage failure should not
			// fail the run.
			log.Warn().Err(err).Msg("failed to persist run to store")
		}
	}

	log.Info().
		Int("events", summary.Events).
		Int("hfos", summary.HFOCount).
		Int("artifacts", summary.ArtifactCount).
		Int("nan_events", summary.NaNEvents).
		Int("bad_chan_events", summary.BadChanEvents).
		Dur("duration", summary.Duration).
		Msg("classification complete")
	return summary, nil
}

func (r *Runner) recordMetrics(summary report.RunSummary, table *compose.Table, start time.Time) {
	r.rec.EventsClassifiedAdd(summary.Events)
	r.rec.HFOsAdd(summary.HFOCount)
	r.rec.ArtifactsAdd(summary.ArtifactCount)
	r.rec.NaNEventsAdd(summary.NaNEvents)
	r.rec.BadChanEventsAdd(summary.BadChanEvents)
	// Observed probabilities are the reported ones, after masking.
	for _, rec := range table.Records {
		if !math.IsNaN(rec.ProbHFO) {
			r.rec.ScoreObserve(rec.ProbHFO)
		}
	}
	r.rec.DurationObserve(time.Since(start).Seconds())
}

func (r *Runner) persistRun(start time.Time, m *model.Descriptor, summary report.RunSummary, table *compose.Table) error {
	runID := start.UTC().Format("20060102-150405")

	run := storage.RunRecord{
		RunID:         runID,
		StartedAt:     start.UTC(),
		ModelPath:     r.settings.ModelPath,
		Threshold:     m.Threshold,
		Events:        summary.Events,
		HFOCount:      summary.HFOCount,
		ArtifactCount: summary.ArtifactCount,
		NaNEvents:     summary.NaNEvents,
		BadChanEvents: summary.BadChanEvents,
	}
	if err := r.store.StoreRun(run); err != nil {
		return fmt.Errorf("store run: %w", err)
	}
	if err := r.store.StoreResults(storage.ResultsFromTable(runID, table)); err != nil {
		return fmt.Errorf("store results: %w", err)
	}

	log.Info().Str("run_id", runID).Msg("run persisted")
	return nil
}

func summaryFilename(resultsFile string) string {
	ext := ".csv"
	if n := len(resultsFile) - len(ext); n > 0 && resultsFile[n:] == ext {
		return resultsFile[:n] + "_summary.json"
	}
	return resultsFile + "_summary.json"
}
