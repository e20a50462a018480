// interfaces.go: defines the interface for candidate catalog storage
package datastore

import (
	"context"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/vast-survey/triage/internal/conf"
	"github.com/vast-survey/triage/internal/errors"
	"github.com/vast-survey/triage/internal/skygeo"
)

// Interface abstracts the underlying database implementation.
type Interface interface {
	Open() error
	Close() error

	// Candidates
	GetCandidate(ctx context.Context, hashID string) (*Candidate, error)
	SaveCandidate(ctx context.Context, cand *Candidate) error
	SearchCandidates(ctx context.Context, f *CandidateFilters) (*CandidatePage, error)
	RandomUnratedCandidate(ctx context.Context, projID, userID string) (*Candidate, error)
	CandidateIDsWithinRadius(ctx context.Context, cols PositionColumns, center skygeo.Position, radiusArcmin float64, excludeID string) ([]string, error)
	CandidatesWithinRadius(ctx context.Context, center skygeo.Position, radiusArcmin float64, excludeID string) ([]Candidate, error)

	// Aggregate bounds
	AggregateBounds(ctx context.Context, projID string) (BoundsSet, error)

	// Ratings and tags
	UpsertRating(ctx context.Context, rating *Rating) error
	RatingsForCandidate(ctx context.Context, candidateID string) ([]Rating, error)
	CandidateIDsWithMatchingRating(ctx context.Context, f RatingFilter) ([]string, error)
	ListTags(ctx context.Context) ([]Tag, error)
	GetOrCreateTag(ctx context.Context, name, description string) (*Tag, error)

	// Hierarchy
	SaveProject(ctx context.Context, p *Project) error
	SaveObservation(ctx context.Context, o *Observation) error
	SaveBeam(ctx context.Context, b *Beam) error
	ListProjects(ctx context.Context) ([]Project, error)
	ListObservations(ctx context.Context, projID string) ([]Observation, error)
	ListBeams(ctx context.Context, projID, obsID string) ([]Beam, error)
	ObservationStatus(ctx context.Context, projID string) ([]ObservationStatus, error)

	// Pulsar catalog mirror
	ReplacePulsars(ctx context.Context, pulsars []ATNFPulsar) (int, error)
	PulsarsWithinRadius(ctx context.Context, center skygeo.Position, radiusArcmin float64) ([]ATNFPulsar, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB          *gorm.DB
	Settings    *conf.Settings
	boundsCache *cache.Cache
}

// New creates a store instance for whichever database the settings enable.
func New(settings *conf.Settings) Interface {
	base := DataStore{
		Settings:    settings,
		boundsCache: cache.New(settings.Search.BoundsTTL, 2*settings.Search.BoundsTTL),
	}
	switch {
	case settings.Database.SQLite.Enabled:
		return &SQLiteStore{DataStore: base}
	case settings.Database.MySQL.Enabled:
		return &MySQLStore{DataStore: base}
	default:
		return nil
	}
}

// GetCandidate retrieves a candidate by its hash id, ratings preloaded.
func (ds *DataStore) GetCandidate(ctx context.Context, hashID string) (*Candidate, error) {
	var cand Candidate
	err := ds.DB.WithContext(ctx).Preload("Ratings").First(&cand, "hash_id = ?", hashID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("candidate %s not found", hashID).
				Category(errors.CategoryNotFound).
				Component("datastore").
				Build()
		}
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "get_candidate").
			Build()
	}
	return &cand, nil
}

// SaveCandidate inserts or updates a candidate. Non-finite statistic values
// must already be nil; the ingestion path sanitizes them before calling this.
func (ds *DataStore) SaveCandidate(ctx context.Context, cand *Candidate) error {
	if err := ds.DB.WithContext(ctx).Save(cand).Error; err != nil {
		return errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "save_candidate").
			Build()
	}
	return nil
}
