// Package resolver turns place names into location records.
//
// A name is in one of three states: unseen, known (a record is stored) or unknown
// (a previous lookup found nothing). Known and unknown names are answered from the
// store without calling the geocoder. Only unseen names reach the geocoder, and the
// whole read, geocode, write sequence runs inside one store transaction.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"geotext/internal/domain"
	"geotext/internal/logging"
)

// Kind discriminates a Resolution.
type Kind uint8

const (
	// Resolved means Record holds the location.
	Resolved Kind = iota + 1
	// NotFound means the geocoder has nothing for the name. Cacheable.
	NotFound
	// Transient means the lookup failed for another reason. Never cached.
	Transient
)

func (k Kind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case NotFound:
		return "not found"
	case Transient:
		return "transient"
	}
	return "invalid"
}

// Resolution is the outcome of resolving one name.
type Resolution struct {
	Kind   Kind
	Name   string
	Record domain.LocationRecord
	// Cached is true when the answer came from the store or the negative cache
	// rather than from the geocoder.
	Cached bool
	Cause  error
}

// Err returns nil for a resolved name, *domain.NotFoundError or *domain.TransientError otherwise.
func (r Resolution) Err() error {
	switch r.Kind {
	case Resolved:
		return nil
	case NotFound:
		return &domain.NotFoundError{Name: r.Name}
	default:
		var te *domain.TransientError
		if errors.As(r.Cause, &te) {
			return te
		}
		return &domain.TransientError{Op: "resolve", Name: r.Name, Err: r.Cause}
	}
}

// Options tunes a Resolver.
type Options struct {
	// Timeout bounds each geocoder call. Zero means 10s.
	Timeout time.Duration
}

// Resolver resolves place names against a store and a geocoder.
type Resolver struct {
	store    domain.LocationStore
	geocoder domain.Geocoder
	timeout  time.Duration
	group    singleflight.Group

	mu      sync.Mutex
	pending map[string]struct{} // unknown, not yet persisted
}

// New creates a Resolver.
func New(store domain.LocationStore, geocoder domain.Geocoder, opts Options) *Resolver {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Resolver{
		store:    store,
		geocoder: geocoder,
		timeout:  opts.Timeout,
		pending:  make(map[string]struct{}),
	}
}

// Resolve returns the location for name, consulting the store before the geocoder.
// Concurrent calls for the same name share one lookup.
func (r *Resolver) Resolve(ctx context.Context, name string) Resolution {
	return r.do(ctx, name, false)
}

// Retry geocodes name again even if it is in the negative cache. On success the
// name moves from unknown to known in a single transaction.
func (r *Resolver) Retry(ctx context.Context, name string) Resolution {
	r.mu.Lock()
	delete(r.pending, name)
	r.mu.Unlock()
	return r.do(ctx, name, true)
}

func (r *Resolver) do(ctx context.Context, name string, retry bool) Resolution {
	key := name
	if retry {
		key = "retry\x00" + name
	}
	v, _, _ := r.group.Do(key, func() (any, error) {
		return r.resolve(ctx, name, retry), nil
	})
	return v.(Resolution)
}

func (r *Resolver) resolve(ctx context.Context, name string, retry bool) Resolution {
	if !retry && r.isPending(name) {
		return Resolution{Kind: NotFound, Name: name, Cached: true}
	}

	var res Resolution
	err := r.store.Update(ctx, func(tx domain.LocationTx) error {
		rec, ok, err := tx.Location(name)
		if err != nil {
			return err
		}
		if ok {
			res = Resolution{Kind: Resolved, Name: name, Record: rec, Cached: true}
			return nil
		}

		unknown, err := tx.IsUnknown(name)
		if err != nil {
			return err
		}
		if unknown && !retry {
			res = Resolution{Kind: NotFound, Name: name, Cached: true}
			return nil
		}

		results, err := r.geocode(ctx, name)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			r.markPending(name)
			res = Resolution{Kind: NotFound, Name: name, Cached: unknown}
			return nil
		}

		first := results[0]
		rec = domain.LocationRecord{
			Name:  name,
			Lon:   first.Lon,
			Lat:   first.Lat,
			Class: first.Class,
			Type:  first.Type,
		}
		// PutLocation also drops a stale unknown entry in this transaction.
		if err := tx.PutLocation(rec); err != nil {
			return err
		}
		if unknown {
			logging.Info("Previously unknown location resolved", "name", name)
		}
		res = Resolution{Kind: Resolved, Name: name, Record: rec}
		return nil
	})
	if err != nil {
		logging.Debug("Resolution failed", "name", name, "error", err)
		return Resolution{Kind: Transient, Name: name, Cause: err}
	}
	return res
}

func (r *Resolver) geocode(ctx context.Context, name string) ([]domain.GeocodeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	logging.Debug("Geocoding", "name", name)
	results, err := r.geocoder.Search(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrTransient) {
			return nil, err
		}
		return nil, &domain.TransientError{Op: "geocode", Name: name, Err: err}
	}
	return results, nil
}

// MarkUnknown persists name in the negative cache and reports whether it was new there.
func (r *Resolver) MarkUnknown(ctx context.Context, name string) (bool, error) {
	var added bool
	err := r.store.Update(ctx, func(tx domain.LocationTx) error {
		var err error
		added, err = tx.PutUnknown(name)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("marking %q unknown: %w", name, err)
	}
	r.mu.Lock()
	delete(r.pending, name)
	r.mu.Unlock()
	return added, nil
}

// Forget removes name from both the known and unknown partitions.
func (r *Resolver) Forget(ctx context.Context, name string) error {
	err := r.store.Update(ctx, func(tx domain.LocationTx) error {
		if err := tx.DeleteLocation(name); err != nil {
			return err
		}
		return tx.DeleteUnknown(name)
	})
	if err != nil {
		return fmt.Errorf("forgetting %q: %w", name, err)
	}
	r.mu.Lock()
	delete(r.pending, name)
	r.mu.Unlock()
	return nil
}

// UnknownNames lists the persisted negative cache.
func (r *Resolver) UnknownNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.store.View(ctx, func(tx domain.LocationTx) error {
		var err error
		names, err = tx.UnknownNames()
		return err
	})
	return names, err
}

func (r *Resolver) isPending(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[name]
	return ok
}

func (r *Resolver) markPending(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[name] = struct{}{}
}
