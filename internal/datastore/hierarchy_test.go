package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHierarchyObjectIDs(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, ds.SaveProject(ctx, &Project{ProjID: "vast", Name: "VAST"}))

	obs := Observation{ProjID: "vast", ObsID: "SB50230"}
	require.NoError(t, ds.SaveObservation(ctx, &obs))
	assert.Equal(t, "vast_SB50230", obs.ObsObjID)

	beam := Beam{ProjID: "vast", ObsID: "SB50230", Index: 3}
	require.NoError(t, ds.SaveBeam(ctx, &beam))
	assert.Equal(t, "vast_SB50230_beam03", beam.BeamObjID)

	projects, err := ds.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)

	observations, err := ds.ListObservations(ctx, "vast")
	require.NoError(t, err)
	require.Len(t, observations, 1)

	beams, err := ds.ListBeams(ctx, "vast", "SB50230")
	require.NoError(t, err)
	require.Len(t, beams, 1)

	none, err := ds.ListObservations(ctx, "gleam")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestObservationStatus(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	ctx := context.Background()

	a := newCandidate("vast", "SB100", 0, "a", 10, -5)
	b := newCandidate("vast", "SB100", 0, "b", 11, -5)
	c := newCandidate("vast", "SB200", 0, "c", 12, -5)
	saveCandidates(t, ds, a, b, c)

	require.NoError(t, ds.UpsertRating(ctx, &Rating{CandidateID: a.HashID, UserID: "alice", Confidence: ConfidenceTrue}))
	require.NoError(t, ds.UpsertRating(ctx, &Rating{CandidateID: a.HashID, UserID: "bob", Confidence: ConfidenceFalse}))

	status, err := ds.ObservationStatus(ctx, "vast")
	require.NoError(t, err)
	require.Len(t, status, 2)

	assert.Equal(t, "SB100", status[0].ObsID)
	assert.Equal(t, int64(2), status[0].Candidates)
	// two ratings on the same candidate still count it as one rated candidate
	assert.Equal(t, int64(1), status[0].Rated)

	assert.Equal(t, "SB200", status[1].ObsID)
	assert.Equal(t, int64(0), status[1].Rated)
}
