package features

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from a batch input table.
// It is raised before any encoding or inference work happens.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required feature columns: %s", strings.Join(e.Missing, ", "))
}

// ShapeMismatchError reports a nucleotide string whose length disagrees with
// the rest of the batch (or with the schema's k-mer length). Row is the
// zero-based batch row, or -1 when no row applies.
type ShapeMismatchError struct {
	Want int
	Got  int
	Row  int
	Kmer string
}

func (e *ShapeMismatchError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("row %d: k-mer %q has length %d, batch expects %d", e.Row, e.Kmer, e.Got, e.Want)
	}
	return fmt.Sprintf("k-mer %q has length %d, expected %d", e.Kmer, e.Got, e.Want)
}

// UnseenCategoryError reports a categorical value outside its declared closed
// level set. Such values are rejected outright: silently mapping them to a
// missing category would hand the classifier a feature vector it was never
// trained on.
type UnseenCategoryError struct {
	Column string
	Value  string
	Levels []string
}

func (e *UnseenCategoryError) Error() string {
	return fmt.Sprintf("%s: value %q is not one of {%s}", e.Column, e.Value, strings.Join(e.Levels, ", "))
}
