package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vast-survey/triage/internal/datastore"
)

func postJSON(target, body, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	return req
}

func TestSaveRating_UpsertReplaces(t *testing.T) {
	e, _, ds := newTestAPI(t)

	cand := seedCandidate(t, ds, "vast", "J0001", 10, -30, nil)
	target := "/api/v2/candidates/" + cand.HashID + "/ratings"

	rec := doRequest(e, postJSON(target, `{"confidence":"T","notes":"looks real"}`, "alice"))
	require.Equal(t, http.StatusCreated, rec.Code, "unexpected response: %s", rec.Body.String())

	rec = doRequest(e, postJSON(target, `{"confidence":"F"}`, "alice"))
	require.Equal(t, http.StatusCreated, rec.Code)

	list := doRequest(e, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	require.Equal(t, http.StatusOK, list.Code)

	ratings := decodeBody[[]datastore.Rating](t, list)
	require.Len(t, ratings, 1, "second submission should replace, not append")
	assert.Equal(t, datastore.ConfidenceFalse, ratings[0].Confidence)
	assert.Equal(t, "alice", ratings[0].UserID)
}

func TestSaveRating_TwoUsers(t *testing.T) {
	e, _, ds := newTestAPI(t)

	cand := seedCandidate(t, ds, "vast", "J0001", 10, -30, nil)
	target := "/api/v2/candidates/" + cand.HashID + "/ratings"

	require.Equal(t, http.StatusCreated, doRequest(e, postJSON(target, `{"confidence":"T"}`, "alice")).Code)
	require.Equal(t, http.StatusCreated, doRequest(e, postJSON(target, `{"confidence":"U"}`, "bob")).Code)

	list := doRequest(e, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	ratings := decodeBody[[]datastore.Rating](t, list)
	assert.Len(t, ratings, 2)
}

func TestSaveRating_Validation(t *testing.T) {
	e, _, ds := newTestAPI(t)

	cand := seedCandidate(t, ds, "vast", "J0001", 10, -30, nil)
	target := "/api/v2/candidates/" + cand.HashID + "/ratings"

	t.Run("missing user header", func(t *testing.T) {
		rec := doRequest(e, postJSON(target, `{"confidence":"T"}`, ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown candidate", func(t *testing.T) {
		rec := doRequest(e, postJSON("/api/v2/candidates/no-such-id/ratings", `{"confidence":"T"}`, "alice"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid confidence", func(t *testing.T) {
		rec := doRequest(e, postJSON(target, `{"confidence":"X"}`, "alice"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTags(t *testing.T) {
	e, _, _ := newTestAPI(t)

	rec := doRequest(e, postJSON("/api/v2/tags", `{"name":"Noise","description":"imaging artefact"}`, ""))
	require.Equal(t, http.StatusCreated, rec.Code, "unexpected response: %s", rec.Body.String())
	created := decodeBody[datastore.Tag](t, rec)

	// Same name again returns the existing tag.
	rec = doRequest(e, postJSON("/api/v2/tags", `{"name":"Noise"}`, ""))
	require.Equal(t, http.StatusCreated, rec.Code)
	again := decodeBody[datastore.Tag](t, rec)
	assert.Equal(t, created.HashID, again.HashID)

	list := doRequest(e, httptest.NewRequest(http.MethodGet, "/api/v2/tags", http.NoBody))
	require.Equal(t, http.StatusOK, list.Code)
	tags := decodeBody[[]datastore.Tag](t, list)
	assert.Len(t, tags, 1)
}

func TestCreateTag_EmptyName(t *testing.T) {
	e, _, _ := newTestAPI(t)

	rec := doRequest(e, postJSON("/api/v2/tags", `{"name":""}`, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
