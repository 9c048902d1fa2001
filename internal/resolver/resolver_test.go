package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotext/internal/domain"
	"geotext/internal/geocode/geocodetest"
	"geotext/internal/store/memory"
)

func setup(t *testing.T) (*Resolver, *memory.Store, *geocodetest.Geocoder) {
	t.Helper()
	st := memory.NewStore()
	geo := geocodetest.New().
		Add("Suez", 32.55, 29.97, "place", "city").
		Add("Red Sea", 38.0, 20.0, "natural", "sea")
	return New(st, geo, Options{Timeout: time.Second}), st, geo
}

func partitions(t *testing.T, st domain.LocationStore, name string) (known, unknown bool) {
	t.Helper()
	require.NoError(t, st.View(context.Background(), func(tx domain.LocationTx) error {
		var err error
		_, known, err = tx.Location(name)
		if err != nil {
			return err
		}
		unknown, err = tx.IsUnknown(name)
		return err
	}))
	return known, unknown
}

func TestResolve_WarmCacheIsIdempotent(t *testing.T) {
	r, _, geo := setup(t)
	ctx := context.Background()

	first := r.Resolve(ctx, "Suez")
	require.Equal(t, Resolved, first.Kind)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, geo.Calls("Suez"))

	second := r.Resolve(ctx, "Suez")
	require.Equal(t, Resolved, second.Kind)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Record, second.Record)
	assert.Equal(t, 1, geo.Calls("Suez"), "warm cache must not call the geocoder")
	assert.NoError(t, second.Err())
}

func TestResolve_UsesFirstResult(t *testing.T) {
	r, _, geo := setup(t)
	geo.Add("Victoria", 1, 1, "place", "city").Add("Victoria", 2, 2, "place", "town")

	res := r.Resolve(context.Background(), "Victoria")
	require.Equal(t, Resolved, res.Kind)
	assert.Equal(t, domain.LocationRecord{Name: "Victoria", Lon: 1, Lat: 1, Class: "place", Type: "city"}, res.Record)
}

func TestResolve_NegativeCacheShortCircuits(t *testing.T) {
	r, st, geo := setup(t)
	ctx := context.Background()

	first := r.Resolve(ctx, "Atlantis")
	require.Equal(t, NotFound, first.Kind)
	assert.False(t, first.Cached, "first failure comes from the geocoder")
	assert.ErrorIs(t, first.Err(), domain.ErrNotFound)

	second := r.Resolve(ctx, "Atlantis")
	require.Equal(t, NotFound, second.Kind)
	assert.True(t, second.Cached)
	assert.ErrorIs(t, second.Err(), domain.ErrNotFound)
	assert.Equal(t, 1, geo.Calls("Atlantis"))

	// Persisting does not change the answer and still avoids the geocoder.
	added, err := r.MarkUnknown(ctx, "Atlantis")
	require.NoError(t, err)
	assert.True(t, added)
	_, unknown := partitions(t, st, "Atlantis")
	assert.True(t, unknown)

	third := r.Resolve(ctx, "Atlantis")
	assert.Equal(t, NotFound, third.Kind)
	assert.True(t, third.Cached)
	assert.Equal(t, 1, geo.Calls("Atlantis"))

	added, err = r.MarkUnknown(ctx, "Atlantis")
	require.NoError(t, err)
	assert.False(t, added)
}

func TestResolve_PersistedUnknownFromEarlierRun(t *testing.T) {
	r, st, geo := setup(t)
	require.NoError(t, st.Update(context.Background(), func(tx domain.LocationTx) error {
		_, err := tx.PutUnknown("Suez")
		return err
	}))

	res := r.Resolve(context.Background(), "Suez")
	assert.Equal(t, NotFound, res.Kind)
	assert.True(t, res.Cached)
	assert.Zero(t, geo.Calls("Suez"))
}

func TestRetry_MovesUnknownToKnownAtomically(t *testing.T) {
	r, st, geo := setup(t)
	ctx := context.Background()
	require.NoError(t, st.Update(ctx, func(tx domain.LocationTx) error {
		_, err := tx.PutUnknown("Suez")
		return err
	}))

	res := r.Retry(ctx, "Suez")
	require.Equal(t, Resolved, res.Kind)
	assert.Equal(t, 1, geo.Calls("Suez"))

	known, unknown := partitions(t, st, "Suez")
	assert.True(t, known)
	assert.False(t, unknown)
}

func TestRetry_StillMissingStaysUnknown(t *testing.T) {
	r, st, _ := setup(t)
	ctx := context.Background()
	_, err := r.MarkUnknown(ctx, "Atlantis")
	require.NoError(t, err)

	res := r.Retry(ctx, "Atlantis")
	assert.Equal(t, NotFound, res.Kind)
	assert.True(t, res.Cached, "already in the negative cache")

	known, unknown := partitions(t, st, "Atlantis")
	assert.False(t, known)
	assert.True(t, unknown)
}

func TestResolve_TransientFailureIsNotCached(t *testing.T) {
	r, st, geo := setup(t)
	ctx := context.Background()
	geo.Fail("Aden", errors.New("connection reset"))

	res := r.Resolve(ctx, "Aden")
	require.Equal(t, Transient, res.Kind)
	assert.ErrorIs(t, res.Err(), domain.ErrTransient)
	assert.NotErrorIs(t, res.Err(), domain.ErrNotFound)

	known, unknown := partitions(t, st, "Aden")
	assert.False(t, known)
	assert.False(t, unknown)

	geo.Add("Aden", 45.03, 12.79, "place", "city")
	res = r.Resolve(ctx, "Aden")
	assert.Equal(t, Resolved, res.Kind)
	assert.Equal(t, 2, geo.Calls("Aden"))
}

func TestResolve_TimeoutIsTransient(t *testing.T) {
	st := memory.NewStore()
	geo := geocodetest.New().Add("Yokohama", 139.6, 35.4, "place", "city")
	geo.Hook = func(ctx context.Context, name string) error {
		<-ctx.Done()
		return ctx.Err()
	}
	r := New(st, geo, Options{Timeout: 20 * time.Millisecond})

	res := r.Resolve(context.Background(), "Yokohama")
	require.Equal(t, Transient, res.Kind)
	assert.ErrorIs(t, res.Err(), domain.ErrTransient)
	assert.ErrorIs(t, res.Err(), context.DeadlineExceeded)

	known, unknown := partitions(t, st, "Yokohama")
	assert.False(t, known)
	assert.False(t, unknown)
}

func TestResolve_ConcurrentSameNameSharesOneLookup(t *testing.T) {
	r, _, geo := setup(t)
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	geo.Hook = func(ctx context.Context, name string) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]Resolution, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Resolve(context.Background(), "Suez")
		}(i)
	}
	<-started
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, res := range results {
		assert.Equal(t, Resolved, res.Kind)
	}
	assert.Equal(t, 1, geo.Calls("Suez"))
}

func TestForget(t *testing.T) {
	r, st, geo := setup(t)
	ctx := context.Background()
	require.Equal(t, Resolved, r.Resolve(ctx, "Suez").Kind)
	_, err := r.MarkUnknown(ctx, "Atlantis")
	require.NoError(t, err)

	require.NoError(t, r.Forget(ctx, "Suez"))
	require.NoError(t, r.Forget(ctx, "Atlantis"))

	known, _ := partitions(t, st, "Suez")
	assert.False(t, known)
	names, err := r.UnknownNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.Equal(t, Resolved, r.Resolve(ctx, "Suez").Kind)
	assert.Equal(t, 2, geo.Calls("Suez"))
}

func TestExclusivityAcrossOperations(t *testing.T) {
	r, st, geo := setup(t)
	ctx := context.Background()
	names := []string{"Suez", "Red Sea", "Atlantis", "Lilliput"}

	for _, name := range names {
		res := r.Resolve(ctx, name)
		if res.Kind == NotFound && !res.Cached {
			_, err := r.MarkUnknown(ctx, name)
			require.NoError(t, err)
		}
	}
	geo.Add("Lilliput", 0, 0, "place", "island")
	r.Retry(ctx, "Lilliput")

	for _, name := range names {
		known, unknown := partitions(t, st, name)
		assert.False(t, known && unknown, name)
	}
	known, unknown := partitions(t, st, "Lilliput")
	assert.True(t, known)
	assert.False(t, unknown)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "not found", NotFound.String())
	assert.Equal(t, "transient", Transient.String())
	assert.Equal(t, "invalid", Kind(0).String())
}
