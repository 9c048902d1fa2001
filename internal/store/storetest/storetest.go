// Package storetest contains a conformance suite for domain.LocationStore backends.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotext/internal/domain"
)

// Factory returns a fresh, empty store. Cleanup is the factory's responsibility.
type Factory func(t *testing.T) domain.LocationStore

// Run exercises every LocationStore guarantee against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("PutAndGet", func(t *testing.T) { testPutAndGet(t, newStore(t)) })
	t.Run("UnknownToKnownIsExclusive", func(t *testing.T) { testUnknownToKnown(t, newStore(t)) })
	t.Run("PutUnknownRefusesKnown", func(t *testing.T) { testPutUnknownRefusesKnown(t, newStore(t)) })
	t.Run("PutUnknownIsIdempotent", func(t *testing.T) { testPutUnknownIdempotent(t, newStore(t)) })
	t.Run("RollbackDiscardsWrites", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("PutLocationOverwrites", func(t *testing.T) { testOverwrite(t, newStore(t)) })
	t.Run("Deletes", func(t *testing.T) { testDeletes(t, newStore(t)) })
	t.Run("ListsAreSorted", func(t *testing.T) { testLists(t, newStore(t)) })
}

var bombay = domain.LocationRecord{Name: "Bombay", Lon: 72.8775, Lat: 19.0760, Class: "place", Type: "city"}

func testPutAndGet(t *testing.T, s domain.LocationStore) {
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx domain.LocationTx) error {
		return tx.PutLocation(bombay)
	}))

	require.NoError(t, s.View(ctx, func(tx domain.LocationTx) error {
		rec, ok, err := tx.Location("Bombay")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, bombay, rec)

		_, ok, err = tx.Location("Yokohama")
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))
}

func testUnknownToKnown(t *testing.T, s domain.LocationStore) {
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx domain.LocationTx) error {
		added, err := tx.PutUnknown("Bombay")
		assert.True(t, added)
		return err
	}))
	require.NoError(t, s.Update(ctx, func(tx domain.LocationTx) error {
		return tx.PutLocation(bombay)
	}))

	require.NoError(t, s.View(ctx, func(tx domain.LocationTx) error {
		unknown, err := tx.IsUnknown("Bombay")
		require.NoError(t, err)
		assert.False(t, unknown, "name must leave the unknown partition when it becomes known")
		_, ok, err := tx.Location("Bombay")
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	}))
}

func testPutUnknownRefusesKnown(t *testing.T, s domain.LocationStore) {
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx domain.LocationTx) error { return tx.PutLocation(bombay) }))

	err := s.Update(ctx, func(tx domain.LocationTx) error {
		_, err := tx.PutUnknown("Bombay")
		return err
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyKnown)

	require.NoError(t, s.View(ctx, func(tx domain.LocationTx) error {
		unknown, err := tx.IsUnknown("Bombay")
		require.NoError(t, err)
		assert.False(t, unknown)
		return nil
	}))
}

func testPutUnknownIdempotent(t *testing.T, s domain.LocationStore) {
	ctx := context.Background()
	var first, second bool
	require.NoError(t, s.Update(ctx, func(tx domain.LocationTx) error {
		var err error
		first, err = tx.PutUnknown("Atlantis")
		return err
	}))
	require.NoError(t, s.Update(ctx, func(tx domain.LocationTx) error {
		var err error
		second, err = tx.PutUnknown("Atlantis")
		return err
	}))
	assert.True(t, first)
	assert.False(t, second)
}

func testRollback(t *testing.T, s domain.LocationStore) {
	ctx := context.Background()
	boom := errors.New("geocoder exploded")
	err := s.Update(ctx, func(tx domain.LocationTx) error {
		if err := tx.PutLocation(bombay); err != nil {
			return err
		}
		if _, err := tx.PutUnknown("Atlantis"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(tx domain.LocationTx) error {
		_, ok, err := tx.Location("Bombay")
		require.NoError(t, err)
		assert.False(t, ok)
		unknown, err := tx.IsUnknown("Atlantis")
		require.NoError(t, err)
		assert.False(t, unknown)
		return nil
	}))
}

func testOverwrite(t *testing.T, s domain.LocationStore) {
	ctx := context.Background()
	moved := bombay
	moved.Lon = 1
	require.NoError(t, s.Update(ctx, func(tx domain.LocationTx) error { return tx.PutLocation(bombay) }))
	require.NoError(t, s.Update(ctx, func(tx domain.LocationTx) error { return tx.PutLocation(moved) }))

	require.NoError(t, s.View(ctx, func(tx domain.LocationTx) error {
		all, err := tx.Locations()
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, moved, all[0])
		return nil
	}))
}

func testDeletes(t *testing.T, s domain.LocationStore) {
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx domain.LocationTx) error {
		if err := tx.PutLocation(bombay); err != nil {
			return err
		}
		_, err := tx.PutUnknown("Atlantis")
		return err
	}))
	require.NoError(t, s.Update(ctx, func(tx domain.LocationTx) error {
		if err := tx.DeleteLocation("Bombay"); err != nil {
			return err
		}
		return tx.DeleteUnknown("Atlantis")
	}))
	require.NoError(t, s.View(ctx, func(tx domain.LocationTx) error {
		all, err := tx.Locations()
		require.NoError(t, err)
		assert.Empty(t, all)
		names, err := tx.UnknownNames()
		require.NoError(t, err)
		assert.Empty(t, names)
		return nil
	}))
}

func testLists(t *testing.T, s domain.LocationStore) {
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx domain.LocationTx) error {
		for _, name := range []string{"Suez", "Aden", "Hong Kong"} {
			if err := tx.PutLocation(domain.LocationRecord{Name: name, Class: "place", Type: "city"}); err != nil {
				return err
			}
		}
		for _, name := range []string{"Zanzibar Creek", "Atlantis"} {
			if _, err := tx.PutUnknown(name); err != nil {
				return err
			}
		}
		return nil
	}))
	require.NoError(t, s.View(ctx, func(tx domain.LocationTx) error {
		all, err := tx.Locations()
		require.NoError(t, err)
		var names []string
		for _, r := range all {
			names = append(names, r.Name)
		}
		assert.Equal(t, []string{"Aden", "Hong Kong", "Suez"}, names)

		unknown, err := tx.UnknownNames()
		require.NoError(t, err)
		assert.Equal(t, []string{"Atlantis", "Zanzibar Creek"}, unknown)
		return nil
	}))
}
