package memory

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"geotext/internal/domain"
	"geotext/internal/vectorstore"
)

// Storage is an in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu         sync.RWMutex
	dimension  int
	vectors    [][]float64
	norms      []float64
	paragraphs []domain.Paragraph
}

var _ vectorstore.Storage = (*Storage)(nil)

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.norms = nil
	s.paragraphs = nil
	return nil
}

func (s *Storage) Upsert(paragraphs []domain.Paragraph, vectors [][]float64) error {
	if len(paragraphs) != len(vectors) {
		return fmt.Errorf("paragraphs and vectors length mismatch: %d != %d", len(paragraphs), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(v), s.dimension)
		}
	}
	for _, v := range vectors {
		s.norms = append(s.norms, norm(v))
	}
	s.paragraphs = append(s.paragraphs, paragraphs...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// Search returns up to topK paragraphs by descending cosine similarity.
// Ties keep insertion order.
func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: got %d, want %d", len(vector), s.dimension)
	}
	if topK <= 0 {
		topK = 5
	}
	qn := norm(vector)
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		if qn == 0 || s.norms[i] == 0 {
			continue
		}
		scores[i] = dot(s.vectors[i], vector) / (qn * s.norms[i])
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, j := range idxs[:topK] {
		results = append(results, domain.SearchResult{Paragraph: s.paragraphs[j], Score: scores[j]})
	}
	return results, nil
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.norms = nil
	s.paragraphs = nil
	return nil
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float64) float64 { return math.Sqrt(dot(v, v)) }
