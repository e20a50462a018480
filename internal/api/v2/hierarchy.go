package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vast-survey/triage/internal/datastore"
)

// initHierarchyRoutes registers the project hierarchy routes
func (c *Controller) initHierarchyRoutes() {
	c.Group.GET("/projects", c.ListProjects)
	c.Group.GET("/projects/:project/observations", c.ListObservations)
	c.Group.GET("/projects/:project/observations/status", c.ObservationStatus)
	c.Group.GET("/projects/:project/observations/:obs/beams", c.ListBeams)
}

// ListProjects returns every survey project.
func (c *Controller) ListProjects(ctx echo.Context) error {
	projects, err := c.DS.ListProjects(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load projects", http.StatusInternalServerError)
	}
	if projects == nil {
		projects = []datastore.Project{}
	}
	return ctx.JSON(http.StatusOK, projects)
}

// ListObservations returns the observations of one project.
func (c *Controller) ListObservations(ctx echo.Context) error {
	observations, err := c.DS.ListObservations(ctx.Request().Context(), ctx.Param("project"))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load observations", http.StatusInternalServerError)
	}
	if observations == nil {
		observations = []datastore.Observation{}
	}
	return ctx.JSON(http.StatusOK, observations)
}

// ObservationStatus reports per-observation rating progress for a project.
func (c *Controller) ObservationStatus(ctx echo.Context) error {
	status, err := c.DS.ObservationStatus(ctx.Request().Context(), ctx.Param("project"))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to compute observation status", http.StatusInternalServerError)
	}
	if status == nil {
		status = []datastore.ObservationStatus{}
	}
	return ctx.JSON(http.StatusOK, status)
}

// ListBeams returns the beams of one observation.
func (c *Controller) ListBeams(ctx echo.Context) error {
	beams, err := c.DS.ListBeams(ctx.Request().Context(), ctx.Param("project"), ctx.Param("obs"))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load beams", http.StatusInternalServerError)
	}
	if beams == nil {
		beams = []datastore.Beam{}
	}
	return ctx.JSON(http.StatusOK, beams)
}
