// Package sites reads and writes tab-separated site tables: the batch input
// format for prediction and the augmented output format carrying the encoded
// nucleotide columns and the classifier's calls.
package sites

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"m6apred/internal/features"
)

// ReadTSV loads a batch input table. The header must carry every required
// feature column; missing columns fail the call before any row is parsed.
// Extra columns are ignored.
func ReadTSV(path string) ([]features.Site, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open site table %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	var missing []string
	for _, col := range features.RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &features.SchemaError{Missing: missing}
	}

	var out []features.Site
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}

		site := features.Site{
			RNAType:   rec[idx[features.ColRNAType]],
			RNARegion: rec[idx[features.ColRNARegion]],
			Kmer:      rec[idx[features.ColKmer]],
		}
		numeric := []struct {
			col string
			dst *float64
		}{
			{features.ColGCContent, &site.GCContent},
			{features.ColExonLength, &site.ExonLength},
			{features.ColDistanceToJunction, &site.DistanceToJunction},
			{features.ColConservation, &site.Conservation},
		}
		for _, n := range numeric {
			v, err := strconv.ParseFloat(rec[idx[n.col]], 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: column %s: invalid number %q",
					path, line, n.col, rec[idx[n.col]])
			}
			*n.dst = v
		}
		out = append(out, site)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("site table %s has no data rows", path)
	}

	log.Debug().Str("path", path).Int("rows", len(out)).Msg("site table loaded")
	return out, nil
}
