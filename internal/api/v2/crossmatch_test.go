package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vast-survey/triage/internal/crossmatch"
	"github.com/vast-survey/triage/internal/datastore"
)

func TestConeSearch(t *testing.T) {
	e, _, ds := newTestAPI(t)

	seedCandidate(t, ds, "vast", "NEAR", 180.1, 0, nil) // 6 arcmin from center
	seedCandidate(t, ds, "vast", "FAR", 183, 0, nil)

	_, err := ds.ReplacePulsars(t.Context(), []datastore.ATNFPulsar{
		{Name: "J1200+0000", RAJ: 180.05, DecJ: 0}, // 3 arcmin from center
	})
	require.NoError(t, err)

	params := url.Values{}
	params.Set("ra", "12:00:00")
	params.Set("dec", "00:00:00")
	params.Set("radius_arcmin", "30")

	rec := doRequest(e, httptest.NewRequest(http.MethodGet, "/api/v2/conesearch?"+params.Encode(), http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code, "unexpected response: %s", rec.Body.String())

	resp := decodeBody[ConeSearchResponse](t, rec)
	require.Len(t, resp.Matches, 2)
	assert.Equal(t, "J1200+0000", resp.Matches[0].Name, "nearest match first")
	assert.Equal(t, crossmatch.SourcePulsar, resp.Matches[0].Source)
	assert.Equal(t, "vast_SB100_beam00_NEAR", resp.Matches[1].Name)
	assert.False(t, resp.Partial)
}

// Absent coordinates are not an error: the search passes through with no
// matches, matching the tolerance for optional position inputs.
func TestConeSearch_MissingCoordinatesIsNoOp(t *testing.T) {
	e, _, ds := newTestAPI(t)

	seedCandidate(t, ds, "vast", "J0001", 180, 0, nil)

	for _, target := range []string{
		"/api/v2/conesearch",
		"/api/v2/conesearch?ra=12:00:00",
		"/api/v2/conesearch?dec=00:00:00",
	} {
		rec := doRequest(e, httptest.NewRequest(http.MethodGet, target, http.NoBody))
		require.Equal(t, http.StatusOK, rec.Code, "unexpected response for %s: %s", target, rec.Body.String())

		resp := decodeBody[ConeSearchResponse](t, rec)
		assert.Empty(t, resp.Matches)
		assert.False(t, resp.Partial)
	}
}

func TestConeSearch_InvalidCoordinates(t *testing.T) {
	e, _, _ := newTestAPI(t)

	rec := doRequest(e, httptest.NewRequest(http.MethodGet, "/api/v2/conesearch?ra=banana&dec=00:00:00", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConeSearch_InvalidRadius(t *testing.T) {
	e, _, _ := newTestAPI(t)

	rec := doRequest(e, httptest.NewRequest(http.MethodGet,
		"/api/v2/conesearch?ra=12:00:00&dec=00:00:00&radius_arcmin=-5", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// A candidate's own cone search excludes the candidate itself from the
// local matches.
func TestCandidateConeSearch_ExcludesSelf(t *testing.T) {
	e, _, ds := newTestAPI(t)

	self := seedCandidate(t, ds, "vast", "SELF", 180, 0, nil)
	seedCandidate(t, ds, "vast", "NEIGHBOR", 180.1, 0, nil)

	rec := doRequest(e, httptest.NewRequest(http.MethodGet,
		"/api/v2/candidates/"+self.HashID+"/conesearch?radius_arcmin=30", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code, "unexpected response: %s", rec.Body.String())

	resp := decodeBody[ConeSearchResponse](t, rec)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "vast_SB100_beam00_NEIGHBOR", resp.Matches[0].Name)
	assert.InDelta(t, 6.0, resp.Matches[0].SepArcmin, 0.01)
}

func TestCandidateConeSearch_NotFound(t *testing.T) {
	e, _, _ := newTestAPI(t)

	rec := doRequest(e, httptest.NewRequest(http.MethodGet, "/api/v2/candidates/no-such-id/conesearch", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
