// testutils_test.go: shared fixtures for API tests. Handlers run against a
// real SQLite-backed datastore so the full query path is exercised.
package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/vast-survey/triage/internal/conf"
	"github.com/vast-survey/triage/internal/crossmatch"
	"github.com/vast-survey/triage/internal/datastore"
	"github.com/vast-survey/triage/internal/session"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()

	s := &conf.Settings{}
	s.Database.SQLite.Enabled = true
	s.Database.SQLite.Path = filepath.Join(t.TempDir(), "triage.db")
	s.Search.PageSize = 25
	s.Search.DefaultRadiusArcmin = 2
	s.Search.AdapterTimeout = 5 * time.Second
	s.Search.BoundsTTL = time.Minute
	s.Search.SessionTTL = time.Hour
	return s
}

// newTestAPI builds a controller with routes registered, backed by a fresh
// SQLite store and a merger over the local and pulsar catalogs only.
func newTestAPI(t *testing.T) (*echo.Echo, *Controller, datastore.Interface) {
	t.Helper()

	settings := testSettings(t)
	ds := datastore.New(settings)
	require.NotNil(t, ds, "expected a datastore for the test settings")
	require.NoError(t, ds.Open(), "failed to open test datastore")
	t.Cleanup(func() { _ = ds.Close() })

	merger := crossmatch.NewMerger(settings.Search.AdapterTimeout, 0,
		&crossmatch.LocalAdapter{Store: ds},
		&crossmatch.PulsarAdapter{Store: ds},
	)

	e := echo.New()
	controller, err := New(e, ds, settings, merger, session.NewStore(settings.Search.SessionTTL),
		log.New(io.Discard, "", 0))
	require.NoError(t, err, "failed to build API controller")
	t.Cleanup(controller.Shutdown)

	return e, controller, ds
}

// doRequest performs a request against the full route stack.
func doRequest(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "failed to decode response body: %s", rec.Body.String())
	return out
}

// seedCandidate stores a minimal candidate and returns it.
func seedCandidate(t *testing.T, ds datastore.Interface, projID, name string, ra, dec float64, chiSquare *float64) datastore.Candidate {
	t.Helper()

	cand := datastore.Candidate{
		HashID:     uuid.New().String(),
		ProjID:     projID,
		ObsID:      "SB100",
		BeamIndex:  0,
		CandObjID:  projID + "_SB100_beam00_" + name,
		Name:       name,
		RA:         ra,
		Dec:        dec,
		BeamRA:     ra,
		BeamDec:    dec,
		DeepRADeg:  ra,
		DeepDecDeg: dec,
		ChiSquare:  chiSquare,
	}
	require.NoError(t, ds.SaveCandidate(t.Context(), &cand), "failed to seed candidate %s", name)
	return cand
}

func fptr(v float64) *float64 {
	return &v
}
