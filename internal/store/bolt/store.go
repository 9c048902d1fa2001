// Package bolt provides an embedded bbolt-backed domain.LocationStore.
//
// Known locations are JSON values in the "locations" bucket and the negative cache is
// the key set of the "unknown_locations" bucket, both keyed by name.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"geotext/internal/domain"
	"geotext/internal/store"
)

var (
	bucketLocations = []byte("locations")
	bucketUnknown   = []byte("unknown_locations")
)

// Store is a bbolt-backed location store.
type Store struct {
	db *bolt.DB
}

var _ domain.LocationStore = (*Store)(nil)

// NewStore opens (creating if needed) the database file at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketLocations, bucketUnknown} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database file.
func (s *Store) Close() error { return s.db.Close() }

// Update runs fn in a read-write transaction.
func (s *Store) Update(ctx context.Context, fn func(domain.LocationTx) error) error {
	return store.Scoped(ctx, s.begin(true), func(tx handle) error { return fn(&txn{tx: tx.Tx}) })
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(domain.LocationTx) error) error {
	return store.Scoped(ctx, s.begin(false), func(tx handle) error { return fn(&txn{tx: tx.Tx}) })
}

func (s *Store) begin(writable bool) func(context.Context) (handle, error) {
	return func(ctx context.Context) (handle, error) {
		if err := ctx.Err(); err != nil {
			return handle{}, err
		}
		tx, err := s.db.Begin(writable)
		if err != nil {
			return handle{}, err
		}
		return handle{tx}, nil
	}
}

// handle adapts read-only bbolt transactions, which cannot be committed, to store.Tx.
type handle struct{ *bolt.Tx }

func (h handle) Commit() error {
	if !h.Writable() {
		return h.Tx.Rollback()
	}
	return h.Tx.Commit()
}

func (h handle) Rollback() error {
	err := h.Tx.Rollback()
	if errors.Is(err, bolt.ErrTxClosed) {
		return nil
	}
	return err
}

type txn struct {
	tx *bolt.Tx
}

var _ domain.LocationTx = (*txn)(nil)

func (t *txn) Location(name string) (domain.LocationRecord, bool, error) {
	v := t.tx.Bucket(bucketLocations).Get([]byte(name))
	if v == nil {
		return domain.LocationRecord{}, false, nil
	}
	var rec domain.LocationRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		return domain.LocationRecord{}, false, fmt.Errorf("decoding location %q: %w", name, err)
	}
	return rec, true, nil
}

func (t *txn) Locations() ([]domain.LocationRecord, error) {
	var out []domain.LocationRecord
	err := t.tx.Bucket(bucketLocations).ForEach(func(k, v []byte) error {
		var rec domain.LocationRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("decoding location %q: %w", k, err)
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

func (t *txn) PutLocation(rec domain.LocationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding location: %w", err)
	}
	if err := t.tx.Bucket(bucketLocations).Put([]byte(rec.Name), data); err != nil {
		return fmt.Errorf("saving location: %w", err)
	}
	if err := t.tx.Bucket(bucketUnknown).Delete([]byte(rec.Name)); err != nil {
		return fmt.Errorf("clearing unknown location: %w", err)
	}
	return nil
}

func (t *txn) DeleteLocation(name string) error {
	return t.tx.Bucket(bucketLocations).Delete([]byte(name))
}

func (t *txn) IsUnknown(name string) (bool, error) {
	return t.tx.Bucket(bucketUnknown).Get([]byte(name)) != nil, nil
}

func (t *txn) UnknownNames() ([]string, error) {
	var out []string
	err := t.tx.Bucket(bucketUnknown).ForEach(func(k, _ []byte) error {
		out = append(out, string(k))
		return nil
	})
	return out, err
}

func (t *txn) PutUnknown(name string) (bool, error) {
	if t.tx.Bucket(bucketLocations).Get([]byte(name)) != nil {
		return false, domain.ErrAlreadyKnown
	}
	b := t.tx.Bucket(bucketUnknown)
	if b.Get([]byte(name)) != nil {
		return false, nil
	}
	if err := b.Put([]byte(name), []byte{}); err != nil {
		return false, fmt.Errorf("saving unknown location: %w", err)
	}
	return true, nil
}

func (t *txn) DeleteUnknown(name string) error {
	return t.tx.Bucket(bucketUnknown).Delete([]byte(name))
}
