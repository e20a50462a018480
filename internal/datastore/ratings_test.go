package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vast-survey/triage/internal/errors"
)

func TestUpsertRating_OnePerCandidateAndUser(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	ctx := context.Background()

	cand := newCandidate("vast", "SB100", 0, "c", 10, -5)
	saveCandidates(t, ds, cand)

	first := Rating{CandidateID: cand.HashID, UserID: "alice", Confidence: ConfidenceUnsure, Notes: "maybe"}
	require.NoError(t, ds.UpsertRating(ctx, &first))

	// same user changes their mind: replaces, does not duplicate
	second := Rating{CandidateID: cand.HashID, UserID: "alice", Confidence: ConfidenceTrue, Notes: "convinced"}
	require.NoError(t, ds.UpsertRating(ctx, &second))

	// a different user adds their own rating
	require.NoError(t, ds.UpsertRating(ctx, &Rating{CandidateID: cand.HashID, UserID: "bob", Confidence: ConfidenceFalse}))

	ratings, err := ds.RatingsForCandidate(ctx, cand.HashID)
	require.NoError(t, err)
	require.Len(t, ratings, 2)

	byUser := make(map[string]Rating, len(ratings))
	for _, r := range ratings {
		byUser[r.UserID] = r
	}
	assert.Equal(t, ConfidenceTrue, byUser["alice"].Confidence)
	assert.Equal(t, "convinced", byUser["alice"].Notes)
	assert.Equal(t, ConfidenceFalse, byUser["bob"].Confidence)
}

func TestUpsertRating_Validation(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	ctx := context.Background()

	err := ds.UpsertRating(ctx, &Rating{CandidateID: "x", UserID: "alice", Confidence: "Y"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))

	err = ds.UpsertRating(ctx, &Rating{Confidence: ConfidenceTrue})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestGetOrCreateTag(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	ctx := context.Background()

	created, err := ds.GetOrCreateTag(ctx, "FRB", "fast radio burst")
	require.NoError(t, err)
	require.NotEmpty(t, created.HashID)

	same, err := ds.GetOrCreateTag(ctx, "FRB", "ignored on lookup")
	require.NoError(t, err)
	assert.Equal(t, created.HashID, same.HashID)

	tags, err := ds.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
}

func TestRandomUnratedCandidate(t *testing.T) {
	t.Parallel()

	ds := newTestStore(t)
	ctx := context.Background()

	rated := newCandidate("vast", "SB100", 0, "rated", 10, -5)
	fresh := newCandidate("vast", "SB100", 0, "fresh", 11, -5)
	otherProj := newCandidate("gleam", "SB100", 0, "other", 12, -5)
	saveCandidates(t, ds, rated, fresh, otherProj)

	require.NoError(t, ds.UpsertRating(ctx, &Rating{CandidateID: rated.HashID, UserID: "alice", Confidence: ConfidenceTrue}))

	got, err := ds.RandomUnratedCandidate(ctx, "vast", "alice")
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Name)

	// bob has rated nothing, so either vast candidate may come back
	got, err = ds.RandomUnratedCandidate(ctx, "vast", "bob")
	require.NoError(t, err)
	assert.Contains(t, []string{"rated", "fresh"}, got.Name)

	// alice rates the rest; nothing remains in scope
	require.NoError(t, ds.UpsertRating(ctx, &Rating{CandidateID: fresh.HashID, UserID: "alice", Confidence: ConfidenceFalse}))
	_, err = ds.RandomUnratedCandidate(ctx, "vast", "alice")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
