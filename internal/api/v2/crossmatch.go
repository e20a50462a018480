package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vast-survey/triage/internal/crossmatch"
	"github.com/vast-survey/triage/internal/errors"
	"github.com/vast-survey/triage/internal/skygeo"
)

// initCrossMatchRoutes registers the cone-search routes
func (c *Controller) initCrossMatchRoutes() {
	c.Group.GET("/conesearch", c.ConeSearch)
	c.Group.GET("/candidates/:id/conesearch", c.CandidateConeSearch)
}

// ConeSearchResponse carries the merged matches from every catalog together
// with per-catalog failure advisories.
type ConeSearchResponse struct {
	Center       skygeo.Position       `json:"center"`
	RadiusArcmin float64               `json:"radius_arcmin"`
	Matches      []crossmatch.Match    `json:"matches"`
	Advisories   []crossmatch.Advisory `json:"advisories,omitempty"`
	Partial      bool                  `json:"partial"`
}

// ConeSearch cross-matches an arbitrary sky position against all catalogs.
// Coordinates are sexagesimal, the radius is in arcminutes. An empty or
// missing coordinate makes the search a no-op with zero matches; only a
// present-but-malformed coordinate is an error.
func (c *Controller) ConeSearch(ctx echo.Context) error {
	raStr, decStr := ctx.QueryParam("ra"), ctx.QueryParam("dec")
	if raStr == "" || decStr == "" {
		return ctx.JSON(http.StatusOK, ConeSearchResponse{Matches: []crossmatch.Match{}})
	}

	center, err := parsePosition(raStr, decStr)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid coordinates", http.StatusBadRequest)
	}
	return c.coneSearch(ctx, center, "")
}

// CandidateConeSearch cross-matches a stored candidate's position against
// all catalogs, excluding the candidate itself from the local matches.
func (c *Controller) CandidateConeSearch(ctx echo.Context) error {
	cand, err := c.DS.GetCandidate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Candidate not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to load candidate", http.StatusInternalServerError)
	}
	return c.coneSearch(ctx, skygeo.Position{RA: cand.RA, Dec: cand.Dec}, cand.HashID)
}

func (c *Controller) coneSearch(ctx echo.Context, center skygeo.Position, excludeID string) error {
	radius := c.Settings.Search.DefaultRadiusArcmin
	if raw := ctx.QueryParam("radius_arcmin"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return c.HandleError(ctx, err, "Invalid radius_arcmin", http.StatusBadRequest)
		}
		radius = v
	}

	result, err := c.Merger.Merge(ctx.Request().Context(), center, radius, excludeID)
	if err != nil {
		return c.HandleError(ctx, err, "Cross-match failed", http.StatusInternalServerError)
	}

	matches := result.Matches
	if matches == nil {
		matches = []crossmatch.Match{}
	}

	return ctx.JSON(http.StatusOK, ConeSearchResponse{
		Center:       center,
		RadiusArcmin: radius,
		Matches:      matches,
		Advisories:   result.Advisories,
		Partial:      result.Partial(),
	})
}
