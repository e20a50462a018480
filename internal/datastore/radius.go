package datastore

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/vast-survey/triage/internal/errors"
	"github.com/vast-survey/triage/internal/skygeo"
)

// PositionColumns names one (ra, dec) column pair on the candidates table.
// Only the three predefined pairs are valid; the names are interpolated into
// SQL and must never come from request input.
type PositionColumns struct {
	RA  string
	Dec string
}

var (
	// OwnPosition is the candidate's own detected position.
	OwnPosition = PositionColumns{RA: "ra", Dec: "dec"}
	// BeamPosition is the parent beam's pointing centre.
	BeamPosition = PositionColumns{RA: "beam_ra", Dec: "beam_dec"}
	// DeepPosition is the matched deep-image counterpart's position.
	DeepPosition = PositionColumns{RA: "deep_ra_deg", Dec: "deep_dec_deg"}
)

func validPositionColumns(cols PositionColumns) bool {
	return cols == OwnPosition || cols == BeamPosition || cols == DeepPosition
}

// CandidateIDsWithinRadius returns the hash ids of candidates whose position
// in the given column pair lies within radiusArcmin of center. The database
// does a declination/right-ascension bounding-box prefilter; exact great
// circle separations are checked here before a row qualifies.
func (ds *DataStore) CandidateIDsWithinRadius(ctx context.Context, cols PositionColumns, center skygeo.Position, radiusArcmin float64, excludeID string) ([]string, error) {
	if !validPositionColumns(cols) {
		return nil, errors.Newf("unknown position column pair %s/%s", cols.RA, cols.Dec).
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}

	query := ds.DB.WithContext(ctx).Model(&Candidate{}).
		Select(fmt.Sprintf("hash_id, %s AS box_ra, %s AS box_dec", cols.RA, cols.Dec))
	query = applyBoundingBox(query, cols, center, radiusArcmin)
	if excludeID != "" {
		query = query.Where("hash_id <> ?", excludeID)
	}

	var rows []struct {
		HashID string  `gorm:"column:hash_id"`
		BoxRA  float64 `gorm:"column:box_ra"`
		BoxDec float64 `gorm:"column:box_dec"`
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "radius_id_set").
			Build()
	}

	ids := make([]string, 0, len(rows))
	for i := range rows {
		pos := skygeo.Position{RA: rows[i].BoxRA, Dec: rows[i].BoxDec}
		if skygeo.SeparationArcmin(center, pos) <= radiusArcmin {
			ids = append(ids, rows[i].HashID)
		}
	}
	return ids, nil
}

// CandidatesWithinRadius returns full candidate rows whose own position lies
// within radiusArcmin of center. Callers order by separation themselves.
func (ds *DataStore) CandidatesWithinRadius(ctx context.Context, center skygeo.Position, radiusArcmin float64, excludeID string) ([]Candidate, error) {
	query := ds.DB.WithContext(ctx).Model(&Candidate{})
	query = applyBoundingBox(query, OwnPosition, center, radiusArcmin)
	if excludeID != "" {
		query = query.Where("hash_id <> ?", excludeID)
	}

	var boxed []Candidate
	if err := query.Find(&boxed).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "radius_candidates").
			Build()
	}

	matches := boxed[:0]
	for i := range boxed {
		pos := skygeo.Position{RA: boxed[i].RA, Dec: boxed[i].Dec}
		if skygeo.SeparationArcmin(center, pos) <= radiusArcmin {
			matches = append(matches, boxed[i])
		}
	}
	return matches, nil
}

// PulsarsWithinRadius returns pulsar mirror rows within radiusArcmin of
// center.
func (ds *DataStore) PulsarsWithinRadius(ctx context.Context, center skygeo.Position, radiusArcmin float64) ([]ATNFPulsar, error) {
	query := ds.DB.WithContext(ctx).Model(&ATNFPulsar{})
	query = applyBoundingBox(query, PositionColumns{RA: "raj", Dec: "decj"}, center, radiusArcmin)

	var boxed []ATNFPulsar
	if err := query.Find(&boxed).Error; err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "radius_pulsars").
			Build()
	}

	matches := boxed[:0]
	for i := range boxed {
		pos := skygeo.Position{RA: boxed[i].RAJ, Dec: boxed[i].DecJ}
		if skygeo.SeparationArcmin(center, pos) <= radiusArcmin {
			matches = append(matches, boxed[i])
		}
	}
	return matches, nil
}

// applyBoundingBox narrows a query to a declination band and, away from the
// poles, a right-ascension window around center. The box circumscribes the
// search circle; exact separation is refined by the caller. SQLite has no
// trigonometric functions, so the exact check cannot live in SQL.
func applyBoundingBox(query *gorm.DB, cols PositionColumns, center skygeo.Position, radiusArcmin float64) *gorm.DB {
	radiusDeg := radiusArcmin / 60

	decMin := math.Max(center.Dec-radiusDeg, -90)
	decMax := math.Min(center.Dec+radiusDeg, 90)
	query = query.Where(fmt.Sprintf("%s BETWEEN ? AND ?", cols.Dec), decMin, decMax)

	// Widen the RA window by the band's worst-case declination. If the band
	// touches a pole, every RA is in range.
	if decMin <= -89.9 || decMax >= 89.9 {
		return query
	}
	maxAbsDec := math.Max(math.Abs(decMin), math.Abs(decMax))
	deltaRA := radiusDeg / math.Cos(maxAbsDec*math.Pi/180)
	if deltaRA >= 180 {
		return query
	}

	raMin := center.RA - deltaRA
	raMax := center.RA + deltaRA
	switch {
	case raMin < 0:
		query = query.Where(fmt.Sprintf("(%s >= ? OR %s <= ?)", cols.RA, cols.RA), raMin+360, raMax)
	case raMax >= 360:
		query = query.Where(fmt.Sprintf("(%s >= ? OR %s <= ?)", cols.RA, cols.RA), raMin, raMax-360)
	default:
		query = query.Where(fmt.Sprintf("%s BETWEEN ? AND ?", cols.RA), raMin, raMax)
	}
	return query
}
