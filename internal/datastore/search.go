package datastore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/vast-survey/triage/internal/errors"
)

// statColumns is the fixed set of numeric statistic columns that accept
// range bounds. Range filters on any other column are rejected.
var statColumns = map[string]bool{
	"chi_square":           true,
	"chi_square_sigma":     true,
	"chi_square_log_sigma": true,
	"peak_map":             true,
	"peak_map_sigma":       true,
	"peak_map_log_sigma":   true,
	"gaussian_map":         true,
	"gaussian_map_sigma":   true,
	"std_map":              true,
	"md_deep":              true,
	"bright_sep_arcmin":    true,
	"beam_sep_deg":         true,
	"deep_int_flux":        true,
	"deep_peak_flux":       true,
	"deep_sep_arcsec":      true,
}

// StatColumns returns the numeric statistic column names in no particular
// order.
func StatColumns() []string {
	cols := make([]string, 0, len(statColumns))
	for col := range statColumns {
		cols = append(cols, col)
	}
	return cols
}

// RangeFilter is an inclusive bound pair on one statistic column. A nil side
// leaves that side unbounded.
type RangeFilter struct {
	Column string
	Gte    *float64
	Lte    *float64
}

// RatingFilter selects candidates through their ratings. Each populated field
// is applied independently: a candidate qualifies for a field when at least
// one of its ratings matches it.
type RatingFilter struct {
	Rated      *bool
	Confidence string // T, F or U; empty = inactive
	TagID      string // empty = inactive
}

// CandidateFilters is the full predicate for a candidate table query.
type CandidateFilters struct {
	ProjID    string // empty = all projects
	ObsID     string
	BeamIndex *int
	DeepNum   *int

	Ranges []RangeFilter
	Rating RatingFilter

	// CoordIDSets holds one hash-id set per active coordinate-radius facet.
	// Sets are intersected: a candidate must be a member of every set. An
	// empty set therefore yields zero results.
	CoordIDSets [][]string

	Page     int // 1-based, clamped to the valid range
	PageSize int
}

// CandidatePage is one page of a filtered candidate listing.
type CandidatePage struct {
	Candidates []Candidate `json:"candidates"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	LastPage   int         `json:"last_page"`
}

// SearchCandidates runs the composed candidate predicate and returns one
// page of results in stable cand_obj_id order.
//
// Rating facets are resolved by first computing the set of candidate ids
// with at least one matching rating and then restricting the candidate
// query to that set. Joining ratings directly would duplicate a candidate
// once per matching rating, or drop candidates when combined with other
// AND'd facets, so the id-set indirection is load-bearing here.
func (ds *DataStore) SearchCandidates(ctx context.Context, f *CandidateFilters) (*CandidatePage, error) {
	query := ds.DB.WithContext(ctx).Model(&Candidate{})

	if f.ProjID != "" {
		query = query.Where("proj_id = ?", f.ProjID)
	}
	if f.ObsID != "" {
		query = query.Where("obs_id = ?", f.ObsID)
	}
	if f.BeamIndex != nil {
		query = query.Where("beam_index = ?", *f.BeamIndex)
	}
	if f.DeepNum != nil {
		query = query.Where("deep_num = ?", *f.DeepNum)
	}

	// Range bounds compare against stored columns; NULL statistics (the
	// pipeline's NaN/Inf) never satisfy a comparison, which is exactly the
	// exclusion semantics the filters need.
	for i := range f.Ranges {
		r := &f.Ranges[i]
		if !statColumns[r.Column] {
			return nil, errors.Newf("unknown statistic column %q", r.Column).
				Category(errors.CategoryValidation).
				Component("datastore").
				Build()
		}
		if r.Gte != nil {
			query = query.Where(fmt.Sprintf("%s >= ?", r.Column), *r.Gte)
		}
		if r.Lte != nil {
			query = query.Where(fmt.Sprintf("%s <= ?", r.Column), *r.Lte)
		}
	}

	query, err := ds.applyRatingFilter(ctx, query, &f.Rating)
	if err != nil {
		return nil, err
	}

	for _, ids := range f.CoordIDSets {
		if len(ids) == 0 {
			return emptyPage(f), nil
		}
		query = query.Where("hash_id IN ?", ids)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "count_candidates").
			Build()
	}

	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	page, lastPage := clampPage(f.Page, total, pageSize)

	var candidates []Candidate
	err = query.Order("cand_obj_id ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Preload("Ratings").
		Find(&candidates).Error
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "search_candidates").
			Build()
	}

	return &CandidatePage{
		Candidates: candidates,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		LastPage:   lastPage,
	}, nil
}

// applyRatingFilter adds the rating facets to a candidate query via the
// id-set indirection. Rated=false is the exception: absence of ratings has
// no id set, so it becomes a NOT EXISTS predicate.
func (ds *DataStore) applyRatingFilter(ctx context.Context, query *gorm.DB, f *RatingFilter) (*gorm.DB, error) {
	if f.Rated != nil {
		if *f.Rated {
			ids, err := ds.CandidateIDsWithMatchingRating(ctx, RatingFilter{Rated: f.Rated})
			if err != nil {
				return nil, err
			}
			query = query.Where("hash_id IN ?", ids)
		} else {
			query = query.Where("NOT EXISTS (SELECT 1 FROM ratings WHERE ratings.candidate_id = candidates.hash_id)")
		}
	}

	if f.Confidence != "" {
		ids, err := ds.CandidateIDsWithMatchingRating(ctx, RatingFilter{Confidence: f.Confidence})
		if err != nil {
			return nil, err
		}
		query = query.Where("hash_id IN ?", ids)
	}

	if f.TagID != "" {
		ids, err := ds.CandidateIDsWithMatchingRating(ctx, RatingFilter{TagID: f.TagID})
		if err != nil {
			return nil, err
		}
		query = query.Where("hash_id IN ?", ids)
	}

	return query, nil
}

// CandidateIDsWithMatchingRating returns the distinct ids of candidates
// having at least one rating that matches the filter.
func (ds *DataStore) CandidateIDsWithMatchingRating(ctx context.Context, f RatingFilter) ([]string, error) {
	query := ds.DB.WithContext(ctx).Model(&Rating{}).Distinct("candidate_id")

	if f.Confidence != "" {
		query = query.Where("confidence = ?", f.Confidence)
	}
	if f.TagID != "" {
		query = query.Where("tag_id = ?", f.TagID)
	}

	var ids []string
	if err := query.Pluck("candidate_id", &ids).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "rating_id_set").
			Build()
	}
	return ids, nil
}

// clampPage normalizes a requested page number into [1, lastPage] so stale
// bookmarked links land on the nearest valid page instead of erroring.
func clampPage(page int, total int64, pageSize int) (clamped, lastPage int) {
	lastPage = int((total + int64(pageSize) - 1) / int64(pageSize))
	if lastPage < 1 {
		lastPage = 1
	}
	switch {
	case page < 1:
		page = 1
	case page > lastPage:
		page = lastPage
	}
	return page, lastPage
}

func emptyPage(f *CandidateFilters) *CandidatePage {
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	return &CandidatePage{
		Candidates: []Candidate{},
		Total:      0,
		Page:       1,
		PageSize:   pageSize,
		LastPage:   1,
	}
}
