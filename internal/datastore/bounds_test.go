package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateBounds(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	ctx := context.Background()

	a := newCandidate("vast", "SB100", 0, "a", 10, -5)
	a.ChiSquare = fptr(1)
	a.PeakMap = fptr(-3)
	b := newCandidate("vast", "SB100", 0, "b", 11, -5)
	b.ChiSquare = fptr(99)
	b.PeakMap = fptr(7)
	// gaussian stats are frequently undefined; the NULLs must not produce
	// bounds and must not disturb the other columns
	c := newCandidate("gleam", "SB100", 0, "c", 12, -5)
	c.ChiSquare = fptr(500)
	saveCandidates(t, ds, a, b, c)

	bounds, err := ds.AggregateBounds(ctx, "")
	require.NoError(t, err)

	chi := bounds["chi_square"]
	require.NotNil(t, chi.Min)
	require.NotNil(t, chi.Max)
	assert.InDelta(t, 1, *chi.Min, 1e-9)
	assert.InDelta(t, 500, *chi.Max, 1e-9)

	peak := bounds["peak_map"]
	require.NotNil(t, peak.Min)
	assert.InDelta(t, -3, *peak.Min, 1e-9)
	assert.InDelta(t, 7, *peak.Max, 1e-9)

	gauss := bounds["gaussian_map"]
	assert.Nil(t, gauss.Min)
	assert.Nil(t, gauss.Max)

	t.Run("project scoped", func(t *testing.T) {
		bounds, err := ds.AggregateBounds(ctx, "vast")
		require.NoError(t, err)
		chi := bounds["chi_square"]
		require.NotNil(t, chi.Max)
		assert.InDelta(t, 99, *chi.Max, 1e-9)
	})
}

func TestAggregateBounds_Cached(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	ds.boundsCache = cache.New(time.Minute, time.Minute)
	ctx := context.Background()

	a := newCandidate("vast", "SB100", 0, "a", 10, -5)
	a.ChiSquare = fptr(10)
	saveCandidates(t, ds, a)

	first, err := ds.AggregateBounds(ctx, "vast")
	require.NoError(t, err)

	// a new candidate within the TTL is not visible yet: refresh lag is
	// tolerated
	b := newCandidate("vast", "SB100", 0, "b", 11, -5)
	b.ChiSquare = fptr(1000)
	saveCandidates(t, ds, b)

	second, err := ds.AggregateBounds(ctx, "vast")
	require.NoError(t, err)
	assert.Equal(t, *first["chi_square"].Max, *second["chi_square"].Max)

	ds.boundsCache.Flush()
	third, err := ds.AggregateBounds(ctx, "vast")
	require.NoError(t, err)
	assert.InDelta(t, 1000, *third["chi_square"].Max, 1e-9)
}
