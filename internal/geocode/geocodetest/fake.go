// Package geocodetest provides an in-memory domain.Geocoder for tests.
package geocodetest

import (
	"context"
	"sync"

	"geotext/internal/domain"
)

// Geocoder answers from a fixed table and counts calls per name.
type Geocoder struct {
	mu      sync.Mutex
	results map[string][]domain.GeocodeResult
	errs    map[string]error
	calls   map[string]int

	// Hook, when set, runs before every lookup. Tests use it to block or slow calls.
	Hook func(ctx context.Context, name string) error
}

var _ domain.Geocoder = (*Geocoder)(nil)

// New creates a fake that knows nothing.
func New() *Geocoder {
	return &Geocoder{
		results: make(map[string][]domain.GeocodeResult),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

// Add registers a single result for name.
func (g *Geocoder) Add(name string, lon, lat float64, class, typ string) *Geocoder {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results[name] = append(g.results[name], domain.GeocodeResult{
		Lon: lon, Lat: lat, Class: class, Type: typ, DisplayName: name,
	})
	delete(g.errs, name)
	return g
}

// Fail makes lookups of name return err.
func (g *Geocoder) Fail(name string, err error) *Geocoder {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs[name] = err
	return g
}

// Search implements domain.Geocoder.
func (g *Geocoder) Search(ctx context.Context, name string) ([]domain.GeocodeResult, error) {
	g.mu.Lock()
	g.calls[name]++
	hook := g.Hook
	g.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, name); err != nil {
			return nil, err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.errs[name]; ok {
		return nil, err
	}
	return append([]domain.GeocodeResult(nil), g.results[name]...), nil
}

// Calls returns how many times name was looked up.
func (g *Geocoder) Calls(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[name]
}

// TotalCalls returns the number of lookups across all names.
func (g *Geocoder) TotalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}
