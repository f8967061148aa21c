package features

import "fmt"

// Column names of the batch input table.
const (
	ColGCContent          = "gc_content"
	ColRNAType            = "RNA_type"
	ColRNARegion          = "RNA_region"
	ColExonLength         = "exon_length"
	ColDistanceToJunction = "distance_to_junction"
	ColConservation       = "evolutionary_conservation"
	ColKmer               = "DNA_5mer"
)

// RequiredColumns lists every column a batch table must carry, in the
// order they appear in the assembled feature vector and in TSV output.
var RequiredColumns = []string{
	ColGCContent,
	ColRNAType,
	ColRNARegion,
	ColExonLength,
	ColDistanceToJunction,
	ColConservation,
	ColKmer,
}

// Domain is an ordered, closed set of categorical levels. The order is part
// of the contract: it fixes the one-hot column layout handed to the
// classifier, so it must match what the model was trained on.
type Domain struct {
	name   string
	levels []string
	index  map[string]int
}

func NewDomain(name string, levels ...string) Domain {
	idx := make(map[string]int, len(levels))
	for i, l := range levels {
		idx[l] = i
	}
	return Domain{name: name, levels: levels, index: idx}
}

func (d Domain) Name() string { return d.name }

func (d Domain) Size() int { return len(d.levels) }

// Levels returns the ordered level set. Callers must not modify it.
func (d Domain) Levels() []string { return d.levels }

// Index returns the position of v in the level set, or false if v is not a
// declared level.
func (d Domain) Index(v string) (int, bool) {
	i, ok := d.index[v]
	return i, ok
}

var (
	RNATypes    = NewDomain(ColRNAType, "mRNA", "lincRNA", "lncRNA", "pseudogene")
	RNARegions  = NewDomain(ColRNARegion, "CDS", "intron", "3'UTR", "5'UTR")
	Nucleotides = NewDomain("nucleotide", "A", "T", "C", "G")
)

// Site is one candidate modification site (a feature record).
type Site struct {
	GCContent          float64
	RNAType            string
	RNARegion          string
	ExonLength         float64
	DistanceToJunction float64
	Conservation       float64
	Kmer               string
}

// Schema fixes the feature layout for a given k-mer length: four numeric
// features followed by one-hot blocks for RNA type, RNA region, and each
// nucleotide position. Every batch is encoded against the full declared
// domains regardless of which levels it happens to exhibit, so the vector
// width and column order never vary between calls.
type Schema struct {
	kmerLen int
}

func NewSchema(kmerLen int) (Schema, error) {
	if kmerLen <= 0 {
		return Schema{}, fmt.Errorf("k-mer length must be positive, got %d", kmerLen)
	}
	return Schema{kmerLen: kmerLen}, nil
}

func (s Schema) KmerLen() int { return s.kmerLen }

// Width is the assembled feature-vector length.
func (s Schema) Width() int {
	return 4 + RNATypes.Size() + RNARegions.Size() + s.kmerLen*Nucleotides.Size()
}

// FeatureNames returns one name per vector column, in vector order.
func (s Schema) FeatureNames() []string {
	names := []string{ColGCContent, ColExonLength, ColDistanceToJunction, ColConservation}
	for _, l := range RNATypes.Levels() {
		names = append(names, ColRNAType+"="+l)
	}
	for _, l := range RNARegions.Levels() {
		names = append(names, ColRNARegion+"="+l)
	}
	for p := 1; p <= s.kmerLen; p++ {
		for _, l := range Nucleotides.Levels() {
			names = append(names, fmt.Sprintf("nt_pos%d=%s", p, l))
		}
	}
	return names
}

// Vector assembles the numeric feature vector for one site. positions holds
// the site's already-encoded nucleotide columns (see EncodeKmers). Values
// outside a declared domain are rejected, never coerced.
func (s Schema) Vector(site Site, positions []string) ([]float64, error) {
	if len(positions) != s.kmerLen {
		return nil, &ShapeMismatchError{Want: s.kmerLen, Got: len(positions), Row: -1, Kmer: site.Kmer}
	}

	v := make([]float64, 0, s.Width())
	v = append(v, site.GCContent, site.ExonLength, site.DistanceToJunction, site.Conservation)

	var err error
	if v, err = appendOneHot(v, RNATypes, site.RNAType); err != nil {
		return nil, err
	}
	if v, err = appendOneHot(v, RNARegions, site.RNARegion); err != nil {
		return nil, err
	}
	for p, nt := range positions {
		i, ok := Nucleotides.Index(nt)
		if !ok {
			return nil, &UnseenCategoryError{
				Column: PositionColumn(p + 1),
				Value:  nt,
				Levels: Nucleotides.Levels(),
			}
		}
		v = appendHot(v, Nucleotides.Size(), i)
	}
	return v, nil
}

func appendOneHot(v []float64, d Domain, value string) ([]float64, error) {
	i, ok := d.Index(value)
	if !ok {
		return nil, &UnseenCategoryError{Column: d.Name(), Value: value, Levels: d.Levels()}
	}
	return appendHot(v, d.Size(), i), nil
}

func appendHot(v []float64, size, hot int) []float64 {
	for i := 0; i < size; i++ {
		if i == hot {
			v = append(v, 1)
		} else {
			v = append(v, 0)
		}
	}
	return v
}
