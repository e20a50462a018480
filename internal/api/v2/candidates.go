package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vast-survey/triage/internal/datastore"
	"github.com/vast-survey/triage/internal/errors"
	"github.com/vast-survey/triage/internal/filterstate"
	"github.com/vast-survey/triage/internal/skygeo"
)

// sessionCookieName carries the opaque filter-session identifier.
const sessionCookieName = "triage_session"

// userIDHeader identifies the rating user. The API trusts the front end to
// supply a stable opaque identifier per user.
const userIDHeader = "X-User-ID"

// coordinateColumns maps each coordinate facet to the candidate column pair
// it searches against.
var coordinateColumns = map[string]datastore.PositionColumns{
	"cand": datastore.OwnPosition,
	"beam": datastore.BeamPosition,
	"deep": datastore.DeepPosition,
}

// initCandidateRoutes registers the candidate listing and detail routes
func (c *Controller) initCandidateRoutes() {
	c.Group.GET("/candidates", c.FilterCandidates)
	c.Group.GET("/candidates/random", c.RandomCandidate)
	c.Group.GET("/candidates/:id", c.GetCandidate)
}

// FacetAdvisory reports a facet that could not be applied as requested.
type FacetAdvisory struct {
	Facet   string `json:"facet"`
	Message string `json:"message"`
}

// FilterTableResponse is one page of the filtered candidate table together
// with the canonical shareable query for the applied state.
type FilterTableResponse struct {
	Candidates   []datastore.Candidate `json:"candidates"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	LastPage     int                   `json:"last_page"`
	Query        string                `json:"query"`
	ActiveFacets []string              `json:"active_facets"`
	Advisories   []FacetAdvisory       `json:"advisories,omitempty"`
}

// FilterCandidates serves the faceted candidate table. Raw query parameters
// are overlaid onto the session's stored filter state, so a request carrying
// only the facet a user just changed still filters by everything they set
// before. The merged state is persisted back to the session and echoed as a
// canonical query string for sharing.
func (c *Controller) FilterCandidates(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	projID := ctx.QueryParam("project")

	bounds, err := c.DS.AggregateBounds(rctx, projID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to compute facet bounds", http.StatusInternalServerError)
	}
	def := filterstate.DefaultState(bounds)

	sid := c.sessionID(ctx)
	base, ok := c.Sessions.Get(sid)
	if !ok {
		base = def
	}

	params := filterstate.DecodeValues(ctx.QueryParams())
	state := filterstate.Merge(base, params)

	filters := &datastore.CandidateFilters{
		ProjID:    projID,
		ObsID:     state.Observation,
		BeamIndex: state.BeamIndex,
		DeepNum:   state.DeepNum,
		Rating: datastore.RatingFilter{
			Rated:      state.Rated,
			Confidence: state.Confidence,
			TagID:      state.TagID,
		},
		Page:     pageParam(ctx),
		PageSize: c.pageSize(),
	}

	// Range facets: a side equal to the live aggregate bound is "unset".
	for _, name := range filterstate.StatFacets {
		rv := state.Ranges[name]
		dv := def.Ranges[name]
		rf := datastore.RangeFilter{Column: name}
		if rv.Gte != nil && !floatsEqual(rv.Gte, dv.Gte) {
			rf.Gte = rv.Gte
		}
		if rv.Lte != nil && !floatsEqual(rv.Lte, dv.Lte) {
			rf.Lte = rv.Lte
		}
		if rf.Gte != nil || rf.Lte != nil {
			filters.Ranges = append(filters.Ranges, rf)
		}
	}

	// Coordinate facets: each active triple resolves to a candidate id set.
	// A triple that fails to parse is deactivated and reported, never fatal.
	var advisories []FacetAdvisory
	for _, name := range filterstate.CoordFacets {
		cv := state.Coords[name]
		if !cv.Active() {
			continue
		}
		center, perr := parsePosition(cv.RAStr, cv.DecStr)
		if perr != nil {
			advisories = append(advisories, FacetAdvisory{Facet: name + "_coord", Message: perr.Error()})
			state.Coords[name] = filterstate.CoordFilter{}
			continue
		}
		ids, err := c.DS.CandidateIDsWithinRadius(rctx, coordinateColumns[name], center, cv.RadiusArcmin, "")
		if err != nil {
			return c.HandleError(ctx, err, "Coordinate search failed", http.StatusInternalServerError)
		}
		if ids == nil {
			ids = []string{}
		}
		filters.CoordIDSets = append(filters.CoordIDSets, ids)
	}

	page, err := c.DS.SearchCandidates(rctx, filters)
	if err != nil {
		if errors.IsCategory(err, errors.CategoryValidation) {
			return c.HandleError(ctx, err, "Invalid filter parameters", http.StatusBadRequest)
		}
		return c.HandleError(ctx, err, "Candidate search failed", http.StatusInternalServerError)
	}

	c.Sessions.Put(sid, state)

	diff := filterstate.Diff(def, state)
	return ctx.JSON(http.StatusOK, FilterTableResponse{
		Candidates:   page.Candidates,
		Total:        page.Total,
		Page:         page.Page,
		PageSize:     page.PageSize,
		LastPage:     page.LastPage,
		Query:        filterstate.EncodeValues(diff).Encode(),
		ActiveFacets: filterstate.ActiveFacets(def, state),
		Advisories:   advisories,
	})
}

// GetCandidate returns one candidate with its ratings.
func (c *Controller) GetCandidate(ctx echo.Context) error {
	cand, err := c.DS.GetCandidate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Candidate not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to load candidate", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, cand)
}

// RandomCandidate returns a candidate the requesting user has not rated yet.
func (c *Controller) RandomCandidate(ctx echo.Context) error {
	userID := ctx.Request().Header.Get(userIDHeader)
	if userID == "" {
		return c.HandleError(ctx, nil, "Missing "+userIDHeader+" header", http.StatusBadRequest)
	}

	cand, err := c.DS.RandomUnratedCandidate(ctx.Request().Context(), ctx.QueryParam("project"), userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "No unrated candidates left", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to pick a candidate", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, cand)
}

// sessionID returns the caller's filter-session id, minting a new one via a
// cookie when the request carries none.
func (c *Controller) sessionID(ctx echo.Context) string {
	if cookie, err := ctx.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	sid := uuid.New().String()
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

func (c *Controller) pageSize() int {
	if c.Settings.Search.PageSize > 0 {
		return c.Settings.Search.PageSize
	}
	return 25
}

func pageParam(ctx echo.Context) int {
	page, err := strconv.Atoi(ctx.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// parsePosition parses a sexagesimal coordinate pair.
func parsePosition(raStr, decStr string) (skygeo.Position, error) {
	ra, err := skygeo.ParseRA(raStr)
	if err != nil {
		return skygeo.Position{}, err
	}
	dec, err := skygeo.ParseDec(decStr)
	if err != nil {
		return skygeo.Position{}, err
	}
	return skygeo.Position{RA: ra, Dec: dec}, nil
}

func floatsEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
