package datastore

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vast-survey/triage/internal/errors"
)

// UpsertRating records a user's opinion of a candidate. A second submission
// by the same user for the same candidate replaces the first; one rating per
// (candidate, user) is an invariant of the rating workflow.
func (ds *DataStore) UpsertRating(ctx context.Context, rating *Rating) error {
	switch rating.Confidence {
	case ConfidenceTrue, ConfidenceFalse, ConfidenceUnsure:
	default:
		return errors.Newf("invalid rating confidence %q", rating.Confidence).
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}
	if rating.CandidateID == "" || rating.UserID == "" {
		return errors.Newf("rating requires candidate and user ids").
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}

	if rating.HashID == "" {
		rating.HashID = uuid.New().String()
	}

	err := ds.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "candidate_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"confidence", "tag_id", "notes", "updated_at"}),
	}).Create(rating).Error
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "upsert_rating").
			Build()
	}
	return nil
}

// RatingsForCandidate returns all ratings of a candidate, newest first.
func (ds *DataStore) RatingsForCandidate(ctx context.Context, candidateID string) ([]Rating, error) {
	var ratings []Rating
	err := ds.DB.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("updated_at DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "ratings_for_candidate").
			Build()
	}
	return ratings, nil
}

// ListTags returns all classification tags in name order.
func (ds *DataStore) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := ds.DB.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "list_tags").
			Build()
	}
	return tags, nil
}

// GetOrCreateTag returns the tag with the given name, creating it when it
// does not exist. Tag names are globally unique.
func (ds *DataStore) GetOrCreateTag(ctx context.Context, name, description string) (*Tag, error) {
	if name == "" {
		return nil, errors.Newf("tag name must not be empty").
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}

	var tag Tag
	err := ds.DB.WithContext(ctx).Where("name = ?", name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "get_tag").
			Build()
	}

	tag = Tag{HashID: uuid.New().String(), Name: name, Description: description}
	if err := ds.DB.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "create_tag").
			Build()
	}
	return &tag, nil
}

// RandomUnratedCandidate picks a random candidate the given user has not
// rated yet, optionally scoped to one project. Returns a not-found error
// when the user has worked through everything.
func (ds *DataStore) RandomUnratedCandidate(ctx context.Context, projID, userID string) (*Candidate, error) {
	query := ds.DB.WithContext(ctx).Model(&Candidate{})
	if projID != "" {
		query = query.Where("proj_id = ?", projID)
	}
	if userID != "" {
		query = query.Where("NOT EXISTS (SELECT 1 FROM ratings WHERE ratings.candidate_id = candidates.hash_id AND ratings.user_id = ?)", userID)
	} else {
		query = query.Where("NOT EXISTS (SELECT 1 FROM ratings WHERE ratings.candidate_id = candidates.hash_id)")
	}

	orderRandom := "RANDOM()"
	if ds.DB.Dialector.Name() == "mysql" {
		orderRandom = "RAND()"
	}

	var cand Candidate
	err := query.Order(orderRandom).First(&cand).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("no unrated candidates remain").
				Category(errors.CategoryNotFound).
				Component("datastore").
				Build()
		}
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "random_unrated").
			Build()
	}
	return &cand, nil
}
