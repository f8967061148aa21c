// Package storage provides an optional persistent audit trail of prediction
// runs using BoltDB. Each batch call is recorded under a run ID so past calls
// can be retrieved and compared. The prediction engine itself stays
// stateless; only the CLI writes here, and only when a data path is
// configured.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"m6apred/internal/features"
	"m6apred/internal/ml"
)

const predictionsBucket = "predictions"

// Store persists prediction records using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "m6apred-data.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PredictionRecord is one persisted prediction row.
type PredictionRecord struct {
	RunID              string    `json:"run_id"`
	Row                int       `json:"row"`
	Timestamp          time.Time `json:"timestamp"`
	GCContent          float64   `json:"gc_content"`
	RNAType            string    `json:"rna_type"`
	RNARegion          string    `json:"rna_region"`
	ExonLength         float64   `json:"exon_length"`
	DistanceToJunction float64   `json:"distance_to_junction"`
	Conservation       float64   `json:"evolutionary_conservation"`
	Kmer               string    `json:"kmer"`
	Prob               float64   `json:"predicted_m6a_prob"`
	Status             string    `json:"predicted_m6a_status"`
}

// Site reconstructs the feature record of a persisted row.
func (r PredictionRecord) Site() features.Site {
	return features.Site{
		GCContent:          r.GCContent,
		RNAType:            r.RNAType,
		RNARegion:          r.RNARegion,
		ExonLength:         r.ExonLength,
		DistanceToJunction: r.DistanceToJunction,
		Conservation:       r.Conservation,
		Kmer:               r.Kmer,
	}
}

// StoreRun persists every prediction of one batch call under runID, keyed so
// that retrieval preserves row order.
func (s *Store) StoreRun(runID string, preds []ml.Prediction) error {
	now := time.Now()
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		if b == nil {
			return fmt.Errorf("predictions bucket missing")
		}

		for i, p := range preds {
			rec := PredictionRecord{
				RunID:              runID,
				Row:                i,
				Timestamp:          now,
				GCContent:          p.Site.GCContent,
				RNAType:            p.Site.RNAType,
				RNARegion:          p.Site.RNARegion,
				ExonLength:         p.Site.ExonLength,
				DistanceToJunction: p.Site.DistanceToJunction,
				Conservation:       p.Site.Conservation,
				Kmer:               p.Site.Kmer,
				Prob:               p.Prob,
				Status:             p.Status,
			}
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal prediction record: %w", err)
			}
			key := fmt.Sprintf("%s_%08d", runID, i)
			if err := b.Put([]byte(key), data); err != nil {
				return fmt.Errorf("store prediction record: %w", err)
			}
		}
		return nil
	})
}

// GetRun returns all persisted predictions of one batch call, in row order.
func (s *Store) GetRun(runID string) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		prefix := []byte(runID + "_")
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal prediction record %s: %w", k, err)
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}
