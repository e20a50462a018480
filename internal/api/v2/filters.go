package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vast-survey/triage/internal/filterstate"
)

// initFilterRoutes registers the filter state and facet metadata routes
func (c *Controller) initFilterRoutes() {
	c.Group.GET("/filters/bounds", c.FacetBounds)
	c.Group.GET("/filters/facets", c.FacetCatalog)
	c.Group.POST("/filters/clear", c.ClearFilters)
}

// FacetBounds returns the live (min, max) of every statistic facet, the
// values a fresh filter form should be initialized with.
func (c *Controller) FacetBounds(ctx echo.Context) error {
	bounds, err := c.DS.AggregateBounds(ctx.Request().Context(), ctx.QueryParam("project"))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to compute facet bounds", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusOK, bounds)
}

// facetInfo describes one facet for form rendering.
type facetInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// FacetCatalog lists every facet the filter form supports.
func (c *Controller) FacetCatalog(ctx echo.Context) error {
	catalog := make([]facetInfo, 0, len(filterstate.Catalog))
	for _, f := range filterstate.Catalog {
		catalog = append(catalog, facetInfo{Name: f.Name, Kind: f.Kind.String()})
	}
	return ctx.JSON(http.StatusOK, catalog)
}

// ClearFilters drops the caller's stored filter state, returning the table
// to the unfiltered default on the next request.
func (c *Controller) ClearFilters(ctx echo.Context) error {
	c.Sessions.Clear(c.sessionID(ctx))
	return ctx.JSON(http.StatusOK, map[string]any{"cleared": true})
}
