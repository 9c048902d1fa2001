package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotext/internal/domain"
	"geotext/internal/store/storetest"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "locations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.LocationStore { return setupTestStore(t) })
}

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewStore("/invalid\x00path/locations.db")
	assert.Error(t, err)
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.db")
	s, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	assert.FileExists(t, path)

	require.NoError(t, s.Update(context.Background(), func(tx domain.LocationTx) error {
		return tx.PutLocation(domain.LocationRecord{Name: "Aden", Lon: 45.03, Lat: 12.79, Class: "place", Type: "city"})
	}))
	require.NoError(t, s.Close())

	s, err = NewStore(path)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	require.NoError(t, s.View(context.Background(), func(tx domain.LocationTx) error {
		rec, ok, err := tx.Location("Aden")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.InDelta(t, 45.03, rec.Lon, 1e-9)
		return nil
	}))
}

func TestSchema_NameIsUnique(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.db.Exec("INSERT INTO locations (name, lon, lat) VALUES ('Suez', 1, 2)")
	require.NoError(t, err)
	_, err = s.db.Exec("INSERT INTO locations (name, lon, lat) VALUES ('Suez', 3, 4)")
	assert.Error(t, err)

	_, err = s.db.Exec("INSERT INTO unknown_locations (name) VALUES ('Atlantis')")
	require.NoError(t, err)
	_, err = s.db.Exec("INSERT INTO unknown_locations (name) VALUES ('Atlantis')")
	assert.Error(t, err)
}

func TestView_RejectsWrites(t *testing.T) {
	s := setupTestStore(t)
	err := s.View(context.Background(), func(tx domain.LocationTx) error {
		return tx.DeleteLocation("Suez")
	})
	assert.Error(t, err)
}
