package vectorstore

import "geotext/internal/domain"

// Storage holds paragraph vectors and supports similarity search.
type Storage interface {
	Init(dimension int) error
	Upsert(paragraphs []domain.Paragraph, vectors [][]float64) error
	Search(vector []float64, topK int) ([]domain.SearchResult, error)
	Len() int
	Clear() error
}
