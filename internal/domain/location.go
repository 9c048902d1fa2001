package domain

import "context"

// LocationRecord is a resolved place, keyed by name.
type LocationRecord struct {
	Name  string  `json:"name"`
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
	Class string  `json:"class"`
	Type  string  `json:"type"`
}

// LocationStore persists known locations and the negative cache of unknown names.
//
// Update runs fn inside a read-write transaction that is committed when fn returns nil
// and rolled back otherwise. View runs fn in a read-only transaction.
type LocationStore interface {
	Update(ctx context.Context, fn func(LocationTx) error) error
	View(ctx context.Context, fn func(LocationTx) error) error
	Close() error
}

// LocationTx is the set of operations available inside a store transaction.
// A name is never in both partitions: PutLocation drops any unknown entry for the
// name, and PutUnknown refuses names that are already known.
type LocationTx interface {
	Location(name string) (LocationRecord, bool, error)
	Locations() ([]LocationRecord, error)
	PutLocation(rec LocationRecord) error
	DeleteLocation(name string) error

	IsUnknown(name string) (bool, error)
	UnknownNames() ([]string, error)
	// PutUnknown reports whether the name was newly added.
	PutUnknown(name string) (bool, error)
	DeleteUnknown(name string) error
}
