package tfidf

import (
	"math"

	"geotext/internal/embedding"
)

// Filter controls which terms survive Dictionary.FilterExtremes.
type Filter struct {
	// NoBelowFraction is multiplied by the corpus size to get the minimum document
	// count. The product is not rounded.
	NoBelowFraction float64
	NoAbove         float64
	KeepN           int
}

// DefaultFilter drops terms in fewer than a tenth or more than half of the documents.
func DefaultFilter() Filter {
	return Filter{NoBelowFraction: 0.1, NoAbove: 0.5, KeepN: 100000}
}

// Apply filters d in place.
func (f Filter) Apply(d *Dictionary) {
	noAbove := f.NoAbove
	if noAbove <= 0 {
		noAbove = 1
	}
	d.FilterExtremes(float64(d.NumDocs())*f.NoBelowFraction, noAbove, f.KeepN)
}

// Model weights bag-of-words vectors by term frequency times log2 inverse document frequency.
type Model struct {
	idf []float64
}

// NewModel computes idf values for every term of d.
func NewModel(d *Dictionary) *Model {
	idf := make([]float64, d.Len())
	n := float64(d.NumDocs())
	for id := range idf {
		if df := d.DocFreq(id); df > 0 {
			idf[id] = math.Log2(n / float64(df))
		}
	}
	return &Model{idf: idf}
}

// Weigh returns the L2-normalised tf-idf pairs of bow. Zero weights are dropped.
func (m *Model) Weigh(bow []Pair) []Pair {
	out := make([]Pair, 0, len(bow))
	norm := 0.0
	for _, p := range bow {
		w := p.Value * m.idf[p.ID]
		if w == 0 {
			continue
		}
		out = append(out, Pair{ID: p.ID, Value: w})
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i].Value /= norm
	}
	return out
}

// Embedder is a sparse tf-idf vectorizer over lemma sequences, one dimension per term.
type Embedder struct {
	filter Filter
	dict   *Dictionary
	model  *Model
}

var _ embedding.Embedder = (*Embedder)(nil)

// NewEmbedder creates an unprepared tf-idf embedder.
func NewEmbedder(filter Filter) *Embedder {
	return &Embedder{filter: filter}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Prepare builds the dictionary and idf values from the corpus.
func (e *Embedder) Prepare(corpus [][]string) error {
	dict := NewDictionary(corpus)
	e.filter.Apply(dict)
	if dict.Len() == 0 {
		e.dict, e.model = nil, nil
		return embedding.ErrEmptyDictionary
	}
	e.dict = dict
	e.model = NewModel(dict)
	return nil
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int {
	if e.dict == nil {
		return 0
	}
	return e.dict.Len()
}

// Dictionary returns the prepared dictionary, nil before Prepare.
func (e *Embedder) Dictionary() *Dictionary { return e.dict }

// Model returns the prepared weighting model, nil before Prepare.
func (e *Embedder) Model() *Model { return e.model }

// Embed computes the dense tf-idf vector of lemmas.
func (e *Embedder) Embed(lemmas []string) ([]float64, error) {
	if e.model == nil {
		return nil, embedding.ErrNotPrepared
	}
	vec := make([]float64, e.dict.Len())
	for _, p := range e.model.Weigh(e.dict.Doc2Bow(lemmas)) {
		vec[p.ID] = p.Value
	}
	return vec, nil
}
