// Package lsi projects tf-idf vectors into a reduced topic space using a
// truncated singular value decomposition of the term-document matrix.
package lsi

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"geotext/internal/domain"
	"geotext/internal/embedding"
	"geotext/internal/embedding/tfidf"
)

// DefaultNumTopics is the topic space dimensionality when none is configured.
const DefaultNumTopics = 100

// topicTerms is how many terms Topics reports per topic.
const topicTerms = 10

// Options configures an Embedder.
type Options struct {
	NumTopics int
	Filter    tfidf.Filter
}

// Embedder implements embedding.Embedder and embedding.TopicModel.
type Embedder struct {
	numTopics int
	filter    tfidf.Filter

	dict  *tfidf.Dictionary
	model *tfidf.Model
	// basis holds the first k left singular vectors, one row per term.
	basis *mat.Dense
	k     int
}

var (
	_ embedding.Embedder   = (*Embedder)(nil)
	_ embedding.TopicModel = (*Embedder)(nil)
)

// New creates an unprepared Embedder.
func New(opts Options) *Embedder {
	if opts.NumTopics <= 0 {
		opts.NumTopics = DefaultNumTopics
	}
	return &Embedder{numTopics: opts.NumTopics, filter: opts.Filter}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "lsi" }

// Prepare builds the dictionary, tf-idf model and topic basis from the corpus.
// The number of topics is capped by the rank of the term-document matrix.
func (e *Embedder) Prepare(corpus [][]string) error {
	e.dict, e.model, e.basis, e.k = nil, nil, nil, 0

	dict := tfidf.NewDictionary(corpus)
	e.filter.Apply(dict)
	if dict.Len() == 0 || len(corpus) == 0 {
		return embedding.ErrEmptyDictionary
	}
	model := tfidf.NewModel(dict)

	a := mat.NewDense(dict.Len(), len(corpus), nil)
	for j, doc := range corpus {
		for _, p := range model.Weigh(dict.Doc2Bow(doc)) {
			a.Set(p.ID, j, p.Value)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return errors.New("lsi: singular value decomposition did not converge")
	}
	values := svd.Values(nil)
	k := rank(values)
	if k > e.numTopics {
		k = e.numTopics
	}
	if k == 0 {
		return embedding.ErrEmptyDictionary
	}

	var u mat.Dense
	svd.UTo(&u)
	basis := mat.DenseCopyOf(u.Slice(0, dict.Len(), 0, k))

	e.dict, e.model, e.basis, e.k = dict, model, basis, k
	return nil
}

// rank counts singular values that are not numerically zero.
func rank(values []float64) int {
	if len(values) == 0 || values[0] == 0 {
		return 0
	}
	tol := values[0] * float64(len(values)) * 1e-12
	n := 0
	for _, v := range values {
		if v > tol {
			n++
		}
	}
	return n
}

// Dimension returns the number of topics, zero before Prepare.
func (e *Embedder) Dimension() int { return e.k }

// Embed projects lemmas into topic space. The result has unit length unless
// no term of lemmas is in the dictionary, in which case it is all zeros.
func (e *Embedder) Embed(lemmas []string) ([]float64, error) {
	if e.basis == nil {
		return nil, embedding.ErrNotPrepared
	}
	out := make([]float64, e.k)
	for _, p := range e.model.Weigh(e.dict.Doc2Bow(lemmas)) {
		for t := 0; t < e.k; t++ {
			out[t] += p.Value * e.basis.At(p.ID, t)
		}
	}
	return embedding.Normalize(out), nil
}

// Topics returns up to n topics, each with its most heavily loaded terms.
func (e *Embedder) Topics(n int) []domain.Topic {
	if e.basis == nil || n <= 0 {
		return nil
	}
	if n > e.k {
		n = e.k
	}
	terms := e.dict.Len()
	topics := make([]domain.Topic, 0, n)
	for t := 0; t < n; t++ {
		weights := make([]domain.TermWeight, terms)
		for id := 0; id < terms; id++ {
			weights[id] = domain.TermWeight{Term: e.dict.Term(id), Weight: e.basis.At(id, t)}
		}
		sort.SliceStable(weights, func(i, j int) bool {
			return math.Abs(weights[i].Weight) > math.Abs(weights[j].Weight)
		})
		if len(weights) > topicTerms {
			weights = weights[:topicTerms]
		}
		topics = append(topics, domain.Topic{ID: t, Terms: weights})
	}
	return topics
}
