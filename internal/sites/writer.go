package sites

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"m6apred/internal/features"
	"m6apred/internal/ml"
)

// Output-only column names.
const (
	ColProb   = "predicted_m6A_prob"
	ColStatus = "predicted_m6A_status"
)

// WriteTSV writes the augmented prediction table: the input columns, the
// positional nucleotide columns, and the two prediction columns, in input
// row order.
func WriteTSV(path string, preds []ml.Prediction) error {
	if len(preds) == 0 {
		return fmt.Errorf("no predictions to write")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output table %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	n := len(preds[0].Positions)
	header := append([]string{}, features.RequiredColumns...)
	header = append(header, features.PositionColumns(n)...)
	header = append(header, ColProb, ColStatus)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, p := range preds {
		row := []string{
			formatFloat(p.Site.GCContent),
			p.Site.RNAType,
			p.Site.RNARegion,
			formatFloat(p.Site.ExonLength),
			formatFloat(p.Site.DistanceToJunction),
			formatFloat(p.Site.Conservation),
			p.Site.Kmer,
		}
		row = append(row, p.Positions...)
		row = append(row, formatFloat(p.Prob), p.Status)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush output table %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
