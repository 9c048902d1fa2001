package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"geotext/internal/domain"
	"geotext/internal/store"
)

var errReadOnly = errors.New("write in read-only transaction")

// Store is an in-process location store. Update transactions work on copies of the
// partitions and swap them in on commit, so a failed transaction leaves no trace.
type Store struct {
	mu        sync.RWMutex
	locations map[string]domain.LocationRecord
	unknown   map[string]struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		locations: make(map[string]domain.LocationRecord),
		unknown:   make(map[string]struct{}),
	}
}

// Update runs fn in a read-write transaction. Writers are serialized.
func (s *Store) Update(ctx context.Context, fn func(domain.LocationTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.Scoped(ctx, s.begin(true), func(tx *txn) error { return fn(tx) })
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(domain.LocationTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.Scoped(ctx, s.begin(false), func(tx *txn) error { return fn(tx) })
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) begin(writable bool) func(context.Context) (*txn, error) {
	return func(ctx context.Context) (*txn, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tx := &txn{store: s, writable: writable, locations: s.locations, unknown: s.unknown}
		if writable {
			tx.locations = maps.Clone(s.locations)
			tx.unknown = maps.Clone(s.unknown)
		}
		return tx, nil
	}
}

type txn struct {
	store     *Store
	writable  bool
	done      bool
	locations map[string]domain.LocationRecord
	unknown   map[string]struct{}
}

var _ domain.LocationTx = (*txn)(nil)

func (t *txn) Commit() error {
	if t.done {
		return errors.New("transaction closed")
	}
	t.done = true
	if t.writable {
		t.store.locations = t.locations
		t.store.unknown = t.unknown
	}
	return nil
}

func (t *txn) Rollback() error {
	t.done = true
	return nil
}

func (t *txn) Location(name string) (domain.LocationRecord, bool, error) {
	rec, ok := t.locations[name]
	return rec, ok, nil
}

func (t *txn) Locations() ([]domain.LocationRecord, error) {
	out := make([]domain.LocationRecord, 0, len(t.locations))
	for _, name := range slices.Sorted(maps.Keys(t.locations)) {
		out = append(out, t.locations[name])
	}
	return out, nil
}

func (t *txn) PutLocation(rec domain.LocationRecord) error {
	if !t.writable {
		return errReadOnly
	}
	t.locations[rec.Name] = rec
	delete(t.unknown, rec.Name)
	return nil
}

func (t *txn) DeleteLocation(name string) error {
	if !t.writable {
		return errReadOnly
	}
	delete(t.locations, name)
	return nil
}

func (t *txn) IsUnknown(name string) (bool, error) {
	_, ok := t.unknown[name]
	return ok, nil
}

func (t *txn) UnknownNames() ([]string, error) {
	return slices.Sorted(maps.Keys(t.unknown)), nil
}

func (t *txn) PutUnknown(name string) (bool, error) {
	if !t.writable {
		return false, errReadOnly
	}
	if _, ok := t.locations[name]; ok {
		return false, domain.ErrAlreadyKnown
	}
	if _, ok := t.unknown[name]; ok {
		return false, nil
	}
	t.unknown[name] = struct{}{}
	return true, nil
}

func (t *txn) DeleteUnknown(name string) error {
	if !t.writable {
		return errReadOnly
	}
	delete(t.unknown, name)
	return nil
}
