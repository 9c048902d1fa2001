package embedding

import (
	"errors"
	"math"

	"geotext/internal/domain"
)

var (
	// ErrEmptyDictionary means no term survived filtering, so no model can be built.
	ErrEmptyDictionary = errors.New("empty dictionary")

	// ErrNotPrepared is returned by Embed before a successful Prepare.
	ErrNotPrepared = errors.New("embedder not prepared")
)

// Embedder converts lemma sequences into a numeric vector representation.
// Prepare must be called with the whole corpus before Embed.
type Embedder interface {
	Name() string
	Prepare(corpus [][]string) error
	Dimension() int
	Embed(lemmas []string) ([]float64, error)
}

// TopicModel is implemented by embedders whose dimensions are interpretable topics.
type TopicModel interface {
	Topics(n int) []domain.Topic
}

// Normalize scales v to unit length in place. Zero vectors are left unchanged.
func Normalize(v []float64) []float64 {
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range v {
			v[i] /= norm
		}
	}
	return v
}
