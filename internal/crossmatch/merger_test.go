package crossmatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vast-survey/triage/internal/errors"
	"github.com/vast-survey/triage/internal/skygeo"
)

// stubAdapter returns canned matches or an error, optionally after a delay.
type stubAdapter struct {
	source  Provenance
	matches []Match
	err     error
	delay   time.Duration
}

func (a *stubAdapter) Source() Provenance { return a.source }

func (a *stubAdapter) ConeSearch(ctx context.Context, _ skygeo.Position, _ float64, _ string) ([]Match, error) {
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	return a.matches, nil
}

func match(name string, source Provenance, sepArcmin float64) Match {
	return Match{Name: name, Source: source, SepArcmin: sepArcmin}
}

func TestMerge_AscendingSeparationAcrossSources(t *testing.T) {
	t.Parallel()

	local := &stubAdapter{source: SourceLocal, matches: []Match{
		match("a", SourceLocal, 5.0),
		match("b", SourceLocal, 1.2),
	}}
	pulsar := &stubAdapter{source: SourcePulsar, matches: []Match{
		match("c", SourcePulsar, 3.0),
	}}

	merger := NewMerger(time.Second, 0, local, pulsar)
	result, err := merger.Merge(context.Background(), skygeo.Position{RA: 10, Dec: -5}, 10, "")
	require.NoError(t, err)
	require.Len(t, result.Matches, 3)

	seps := []float64{result.Matches[0].SepArcmin, result.Matches[1].SepArcmin, result.Matches[2].SepArcmin}
	assert.Equal(t, []float64{1.2, 3.0, 5.0}, seps)
	assert.False(t, result.Partial())
}

func TestMerge_TieBreakByProvenanceThenName(t *testing.T) {
	t.Parallel()

	local := &stubAdapter{source: SourceLocal, matches: []Match{
		match("zeta", SourceLocal, 2.0),
		match("alpha", SourceLocal, 2.0),
	}}
	simbadSrc := &stubAdapter{source: SourceSimbad, matches: []Match{
		match("middle", SourceSimbad, 2.0),
	}}

	// adapter order defines provenance precedence
	merger := NewMerger(time.Second, 0, local, simbadSrc)
	result, err := merger.Merge(context.Background(), skygeo.Position{}, 10, "")
	require.NoError(t, err)
	require.Len(t, result.Matches, 3)

	assert.Equal(t, "alpha", result.Matches[0].Name)
	assert.Equal(t, "zeta", result.Matches[1].Name)
	assert.Equal(t, "middle", result.Matches[2].Name)
}

func TestMerge_FailedSourceIsAdvisoryNotFatal(t *testing.T) {
	t.Parallel()

	local := &stubAdapter{source: SourceLocal, matches: []Match{match("kept", SourceLocal, 1.0)}}
	broken := &stubAdapter{source: SourceSimbad, err: errors.Newf("service down").
		Category(errors.CategoryCatalogUnavailable).
		Component("simbad").
		Build()}

	merger := NewMerger(time.Second, 0, local, broken)
	result, err := merger.Merge(context.Background(), skygeo.Position{}, 10, "")
	require.NoError(t, err, "a single source failure must not fail the merge")

	require.Len(t, result.Matches, 1)
	assert.Equal(t, "kept", result.Matches[0].Name)
	require.True(t, result.Partial())
	require.Len(t, result.Advisories, 1)
	assert.Equal(t, SourceSimbad, result.Advisories[0].Source)
}

func TestMerge_SlowSourceTimesOutOthersSurvive(t *testing.T) {
	t.Parallel()

	fast := &stubAdapter{source: SourcePulsar, matches: []Match{match("psr", SourcePulsar, 0.5)}}
	slow := &stubAdapter{source: SourceSimbad, delay: 2 * time.Second,
		matches: []Match{match("never", SourceSimbad, 0.1)}}

	merger := NewMerger(50*time.Millisecond, 0, fast, slow)

	start := time.Now()
	result, err := merger.Merge(context.Background(), skygeo.Position{}, 10, "")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second, "merge latency must be bounded by the adapter timeout")
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "psr", result.Matches[0].Name)
	require.Len(t, result.Advisories, 1)
	assert.Equal(t, SourceSimbad, result.Advisories[0].Source)
}

func TestMerge_DeduplicatesWithinSource(t *testing.T) {
	t.Parallel()

	local := &stubAdapter{source: SourceLocal, matches: []Match{
		match("dup", SourceLocal, 1.0),
		match("dup", SourceLocal, 1.0),
	}}

	merger := NewMerger(time.Second, 0, local)
	result, err := merger.Merge(context.Background(), skygeo.Position{}, 10, "")
	require.NoError(t, err)
	assert.Len(t, result.Matches, 1)
}

func TestMerge_CapsResults(t *testing.T) {
	t.Parallel()

	local := &stubAdapter{source: SourceLocal, matches: []Match{
		match("far", SourceLocal, 9.0),
		match("near", SourceLocal, 1.0),
		match("mid", SourceLocal, 5.0),
	}}

	merger := NewMerger(time.Second, 2, local)
	result, err := merger.Merge(context.Background(), skygeo.Position{}, 10, "")
	require.NoError(t, err)
	require.Len(t, result.Matches, 2)
	assert.Equal(t, "near", result.Matches[0].Name)
	assert.Equal(t, "mid", result.Matches[1].Name)
}

func TestNewMatch_PopulatesBothCoordinateForms(t *testing.T) {
	t.Parallel()

	center := skygeo.Position{RA: 10, Dec: -5}
	m := newMatch("obj", skygeo.Position{RA: 10, Dec: -4.5}, center, SourcePulsar)

	assert.Equal(t, "00:40:00.00", m.RAStr)
	assert.Equal(t, "-04:30:00.0", m.DecStr)
	assert.InDelta(t, 30, m.SepArcmin, 1e-6)
	assert.Equal(t, SourcePulsar, m.Source)
}
