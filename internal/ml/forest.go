package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// forestFile is the on-disk layout of a random forest artifact: one flat
// node-array per tree, sklearn export style. A node is a leaf when its left
// child is negative; leaf Value holds per-class sample counts.
type forestFile struct {
	Version      string     `json:"version"`
	KmerLength   int        `json:"kmer_length"`
	NumFeatures  int        `json:"num_features"`
	Classes      []string   `json:"classes"`
	FeatureNames []string   `json:"feature_names,omitempty"`
	TrainedAt    string     `json:"trained_at,omitempty"`
	Trees        []treeFile `json:"trees"`
}

type treeFile struct {
	Feature   []int       `json:"feature"`
	Threshold []float64   `json:"threshold"`
	Left      []int       `json:"left"`
	Right     []int       `json:"right"`
	Value     [][]float64 `json:"value"`
}

// Forest is a loaded random forest classifier. Prediction averages the
// per-tree class distributions, matching how the model's training framework
// computes ensemble probabilities.
type Forest struct {
	trees       []treeFile
	numFeatures int
	kmerLen     int
	positive    int
	classes     []string
	version     string
	trainedAt   string
	path        string
	created     time.Time
}

// ModelInfo describes a loaded artifact for logging and the model-info
// endpoint.
type ModelInfo struct {
	Path        string    `json:"path"`
	Version     string    `json:"version"`
	TrainedAt   string    `json:"trained_at,omitempty"`
	Trees       int       `json:"trees"`
	NumFeatures int       `json:"num_features"`
	KmerLength  int       `json:"kmer_length"`
	Classes     []string  `json:"classes"`
	Created     time.Time `json:"created"`
}

// LoadForest reads and validates a forest artifact from path.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", path, err)
	}

	var file forestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, err)
	}

	positive, err := validateForest(&file)
	if err != nil {
		return nil, fmt.Errorf("invalid model file %s: %w", path, err)
	}

	var created time.Time
	if info, err := os.Stat(path); err == nil {
		created = info.ModTime()
	}

	f := &Forest{
		trees:       file.Trees,
		numFeatures: file.NumFeatures,
		kmerLen:     file.KmerLength,
		positive:    positive,
		classes:     file.Classes,
		version:     file.Version,
		trainedAt:   file.TrainedAt,
		path:        path,
		created:     created,
	}

	log.Info().
		Str("model_path", path).
		Str("version", f.version).
		Int("trees", len(f.trees)).
		Int("num_features", f.numFeatures).
		Int("kmer_length", f.kmerLen).
		Msg("random forest model loaded")

	return f, nil
}

func validateForest(file *forestFile) (positive int, err error) {
	if len(file.Trees) == 0 {
		return 0, fmt.Errorf("model has no trees")
	}
	if file.NumFeatures <= 0 {
		return 0, fmt.Errorf("num_features must be positive, got %d", file.NumFeatures)
	}
	if file.KmerLength <= 0 {
		return 0, fmt.Errorf("kmer_length must be positive, got %d", file.KmerLength)
	}

	positive = -1
	for i, c := range file.Classes {
		if c == StatusPositive {
			positive = i
		}
	}
	if positive < 0 {
		return 0, fmt.Errorf("model classes %v do not include %q", file.Classes, StatusPositive)
	}

	for ti, tr := range file.Trees {
		n := len(tr.Feature)
		if n == 0 {
			return 0, fmt.Errorf("tree %d is empty", ti)
		}
		if len(tr.Threshold) != n || len(tr.Left) != n || len(tr.Right) != n || len(tr.Value) != n {
			return 0, fmt.Errorf("tree %d: node arrays have inconsistent lengths", ti)
		}
		for i := 0; i < n; i++ {
			if tr.Left[i] >= 0 {
				if tr.Left[i] >= n || tr.Right[i] < 0 || tr.Right[i] >= n {
					return 0, fmt.Errorf("tree %d: node %d has child index out of range", ti, i)
				}
				if tr.Feature[i] < 0 || tr.Feature[i] >= file.NumFeatures {
					return 0, fmt.Errorf("tree %d: node %d splits on feature %d, model has %d features",
						ti, i, tr.Feature[i], file.NumFeatures)
				}
			} else if len(tr.Value[i]) != len(file.Classes) {
				return 0, fmt.Errorf("tree %d: leaf %d has %d class counts, expected %d",
					ti, i, len(tr.Value[i]), len(file.Classes))
			}
		}
	}
	return positive, nil
}

func (f *Forest) NumFeatures() int { return f.numFeatures }

// KmerLen reports the nucleotide-context length the model was trained with.
func (f *Forest) KmerLen() int { return f.kmerLen }

func (f *Forest) Info() ModelInfo {
	return ModelInfo{
		Path:        f.path,
		Version:     f.version,
		TrainedAt:   f.trainedAt,
		Trees:       len(f.trees),
		NumFeatures: f.numFeatures,
		KmerLength:  f.kmerLen,
		Classes:     f.classes,
		Created:     f.created,
	}
}

// PredictProba returns the averaged Positive-class probability for each row.
func (f *Forest) PredictProba(rows [][]float64) ([]float64, error) {
	probs := make([]float64, len(rows))
	for r, row := range rows {
		if len(row) != f.numFeatures {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", r, len(row), f.numFeatures)
		}
		for i, v := range row {
			if v != v {
				return nil, fmt.Errorf("row %d: feature %d is NaN", r, i)
			}
		}

		var sum float64
		for ti := range f.trees {
			p, err := f.leafProba(&f.trees[ti], row)
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", ti, err)
			}
			sum += p
		}
		probs[r] = sum / float64(len(f.trees))
	}
	return probs, nil
}

func (f *Forest) leafProba(tr *treeFile, row []float64) (float64, error) {
	i := 0
	for steps := 0; steps <= len(tr.Feature); steps++ {
		if tr.Left[i] < 0 {
			counts := tr.Value[i]
			var total float64
			for _, c := range counts {
				total += c
			}
			if total == 0 {
				return 0, fmt.Errorf("leaf %d has no samples", i)
			}
			return counts[f.positive] / total, nil
		}
		if row[tr.Feature[i]] <= tr.Threshold[i] {
			i = tr.Left[i]
		} else {
			i = tr.Right[i]
		}
	}
	return 0, fmt.Errorf("cycle detected while descending tree")
}
