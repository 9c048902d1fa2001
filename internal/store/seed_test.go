package store_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotext/internal/domain"
	"geotext/internal/store"
	"geotext/internal/store/memory"
)

func TestSeedCSV(t *testing.T) {
	s := memory.NewStore()
	csv := "name,lon,lat,class,type\n" +
		"Suez,32.55,29.97,place,city\n" +
		"Red Sea, 38.0, 20.0, natural, sea\n"

	n, err := store.SeedCSV(context.Background(), s, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.View(context.Background(), func(tx domain.LocationTx) error {
		rec, ok, err := tx.Location("Red Sea")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, domain.LocationRecord{Name: "Red Sea", Lon: 38, Lat: 20, Class: "natural", Type: "sea"}, rec)
		return nil
	}))
}

func TestSeedCSV_ColumnOrderFollowsHeader(t *testing.T) {
	s := memory.NewStore()
	csv := "type,class,lat,lon,name\ncity,place,22.57,88.36,Calcutta\n"
	_, err := store.SeedCSV(context.Background(), s, strings.NewReader(csv))
	require.NoError(t, err)

	require.NoError(t, s.View(context.Background(), func(tx domain.LocationTx) error {
		rec, ok, err := tx.Location("Calcutta")
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, 88.36, rec.Lon, 1e-9)
		assert.Equal(t, "city", rec.Type)
		return nil
	}))
}

func TestSeedCSV_BadRowAbortsEverything(t *testing.T) {
	s := memory.NewStore()
	csv := "name,lon,lat,class,type\nSuez,32.55,29.97,place,city\nAden,east,12.8,place,city\n"
	_, err := store.SeedCSV(context.Background(), s, strings.NewReader(csv))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "line 3")

	require.NoError(t, s.View(context.Background(), func(tx domain.LocationTx) error {
		all, err := tx.Locations()
		require.NoError(t, err)
		assert.Empty(t, all)
		return nil
	}))
}

func TestSeedCSV_MissingColumn(t *testing.T) {
	_, err := store.SeedCSV(context.Background(), memory.NewStore(), strings.NewReader("name,lon,lat\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
