package features

import (
	"fmt"
	"strings"
)

// PositionColumn names the encoded column for 1-based nucleotide position p.
func PositionColumn(p int) string { return fmt.Sprintf("nt_pos%d", p) }

// PositionColumns returns the encoded column names for k-mer length n.
func PositionColumns(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = PositionColumn(i + 1)
	}
	return cols
}

// EncodeKmers splits each k-mer into per-position nucleotide columns, one row
// per input in input order. The common length is taken from the first k-mer;
// a row of any other length fails the whole batch rather than silently
// misaligning columns. Characters outside {A,T,C,G} are rejected.
func EncodeKmers(kmers []string) ([][]string, error) {
	if len(kmers) == 0 {
		return nil, fmt.Errorf("no k-mers to encode")
	}
	n := len(kmers[0])
	if n == 0 {
		return nil, fmt.Errorf("row 0: empty k-mer")
	}

	rows := make([][]string, len(kmers))
	for r, kmer := range kmers {
		if len(kmer) != n {
			return nil, &ShapeMismatchError{Want: n, Got: len(kmer), Row: r, Kmer: kmer}
		}
		cols := strings.Split(kmer, "")
		for p, nt := range cols {
			if _, ok := Nucleotides.Index(nt); !ok {
				return nil, fmt.Errorf("row %d: %w", r, &UnseenCategoryError{
					Column: PositionColumn(p + 1),
					Value:  nt,
					Levels: Nucleotides.Levels(),
				})
			}
		}
		rows[r] = cols
	}
	return rows, nil
}
