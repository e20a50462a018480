package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vast-survey/triage/internal/datastore"
	"github.com/vast-survey/triage/internal/errors"
)

// initRatingRoutes registers the rating and tag routes
func (c *Controller) initRatingRoutes() {
	c.Group.GET("/candidates/:id/ratings", c.ListRatings)
	c.Group.POST("/candidates/:id/ratings", c.SaveRating)
	c.Group.GET("/tags", c.ListTags)
	c.Group.POST("/tags", c.CreateTag)
}

// RatingRequest is the body of a rating submission.
type RatingRequest struct {
	Confidence string `json:"confidence"` // T, F or U
	TagID      string `json:"tag_id"`
	Notes      string `json:"notes"`
}

// ListRatings returns every rating on a candidate, newest first.
func (c *Controller) ListRatings(ctx echo.Context) error {
	ratings, err := c.DS.RatingsForCandidate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load ratings", http.StatusInternalServerError)
	}
	if ratings == nil {
		ratings = []datastore.Rating{}
	}
	return ctx.JSON(http.StatusOK, ratings)
}

// SaveRating records the requesting user's verdict on a candidate. A user
// has at most one rating per candidate; submitting again replaces it.
func (c *Controller) SaveRating(ctx echo.Context) error {
	userID := ctx.Request().Header.Get(userIDHeader)
	if userID == "" {
		return c.HandleError(ctx, nil, "Missing "+userIDHeader+" header", http.StatusBadRequest)
	}

	var req RatingRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}

	rctx := ctx.Request().Context()
	candidateID := ctx.Param("id")

	// Reject ratings on unknown candidates up front so the unique index
	// never fills with orphans.
	if _, err := c.DS.GetCandidate(rctx, candidateID); err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Candidate not found", http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to load candidate", http.StatusInternalServerError)
	}

	rating := &datastore.Rating{
		CandidateID: candidateID,
		UserID:      userID,
		Confidence:  req.Confidence,
		TagID:       req.TagID,
		Notes:       req.Notes,
	}
	if err := c.DS.UpsertRating(rctx, rating); err != nil {
		if errors.IsCategory(err, errors.CategoryValidation) {
			return c.HandleError(ctx, err, "Invalid rating", http.StatusBadRequest)
		}
		return c.HandleError(ctx, err, "Failed to save rating", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusCreated, rating)
}

// ListTags returns the tag vocabulary.
func (c *Controller) ListTags(ctx echo.Context) error {
	tags, err := c.DS.ListTags(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load tags", http.StatusInternalServerError)
	}
	if tags == nil {
		tags = []datastore.Tag{}
	}
	return ctx.JSON(http.StatusOK, tags)
}

// TagRequest is the body of a tag creation.
type TagRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreateTag adds a tag to the vocabulary, returning the existing tag when
// the name is already taken.
func (c *Controller) CreateTag(ctx echo.Context) error {
	var req TagRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request format", http.StatusBadRequest)
	}
	if req.Name == "" {
		return c.HandleError(ctx, nil, "Tag name must not be empty", http.StatusBadRequest)
	}

	tag, err := c.DS.GetOrCreateTag(ctx.Request().Context(), req.Name, req.Description)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to create tag", http.StatusInternalServerError)
	}
	return ctx.JSON(http.StatusCreated, tag)
}
