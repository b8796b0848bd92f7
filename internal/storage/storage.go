// Package storage provides optional persistent storage of classification
// runs using BoltDB. Each run stores a summary record plus one result
// record per event, keyed by run id for efficient prefix scans.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	runsBucket    = "runs"    // Bucket for per-run summary records
	resultsBucket = "results" // Bucket for per-event result records
)

// Store persists classification runs in a BoltDB database.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database under dataPath and ensures the
// buckets exist.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	dbPath := filepath.Join(dataPath, "hfoclass-data.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(runsBucket)); err != nil {
			return fmt.Errorf("create runs bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(resultsBucket)); err != nil {
			return fmt.Errorf("create results bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RunRecord summarizes one classification run.
type RunRecord struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	ModelPath     string    `json:"model_path"`
	Threshold     float64   `json:"threshold"`
	Events        int       `json:"events"`
	HFOCount      int       `json:"hfo_count"`
	ArtifactCount int       `json:"artifact_count"`
	NaNEvents     int       `json:"nan_events"`
	BadChanEvents int       `json:"bad_chan_events"`
}

// EventResult is one classified event as stored. Undefined label, score
// and bad-channel values are stored as nil rather than NaN so the record
// survives JSON round-trips.
type EventResult struct {
	RunID      string   `json:"run_id"`
	Seq        int      `json:"seq"`
	StartIdx   int      `json:"start_idx"`
	EndIdx     int      `json:"end_idx"`
	ChanIdx    int      `json:"chan_idx"`
	Label      *float64 `json:"label"`
	ProbHFO    *float64 `json:"prob_hfo"`
	IsBadChan  *float64 `json:"is_bad_chan"`
	IsNaNEvent float64  `json:"is_nan_event"`
}

// StoreRun stores a run summary keyed by its run id.
func (s *Store) StoreRun(run RunRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))

		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshal run record: %w", err)
		}
		return b.Put([]byte(run.RunID), data)
	})
}

// StoreResults stores the per-event results of a run. Keys use the
// "runID_seq" format so a single prefix scan retrieves a whole run in
// event order.
func (s *Store) StoreResults(results []EventResult) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(resultsBucket))

		for _, r := range results {
			data, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("marshal event result: %w", err)
			}
			key := fmt.Sprintf("%s_%08d", r.RunID, r.Seq)
			if err := b.Put([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetRun retrieves a run summary by id.
func (s *Store) GetRun(runID string) (RunRecord, error) {
	var run RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		data := b.Get([]byte(runID))
		if data == nil {
			return fmt.Errorf("run %s not found", runID)
		}
		return json.Unmarshal(data, &run)
	})
	return run, err
}

// GetResults retrieves all event results for a run, in event order.
func (s *Store) GetResults(runID string) ([]EventResult, error) {
	var results []EventResult

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(resultsBucket))
		c := b.Cursor()

		prefix := []byte(runID + "_")
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var r EventResult
			if err := json.Unmarshal(v, &r); err != nil {
				continue // Skip malformed records
			}
			results = append(results, r)
		}
		return nil
	})

	return results, err
}

// ListRuns returns all stored run summaries.
func (s *Store) ListRuns() ([]RunRecord, error) {
	var runs []RunRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		return b.ForEach(func(_, v []byte) error {
			var run RunRecord
			if err := json.Unmarshal(v, &run); err != nil {
				return nil
			}
			runs = append(runs, run)
			return nil
		})
	})

	return runs, err
}
