package datastore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vast-survey/triage/internal/errors"
)

// SaveProject inserts or updates a project record.
func (ds *DataStore) SaveProject(ctx context.Context, p *Project) error {
	if p.ProjID == "" {
		return errors.Newf("project requires a proj_id").
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}
	if p.HashID == "" {
		p.HashID = uuid.New().String()
	}
	if err := ds.DB.WithContext(ctx).Save(p).Error; err != nil {
		return dbError(err, "save_project")
	}
	return nil
}

// SaveObservation inserts or updates an observation record and derives its
// human object id from the hierarchy.
func (ds *DataStore) SaveObservation(ctx context.Context, o *Observation) error {
	if o.ProjID == "" || o.ObsID == "" {
		return errors.Newf("observation requires proj_id and obs_id").
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}
	if o.HashID == "" {
		o.HashID = uuid.New().String()
	}
	o.ObsObjID = fmt.Sprintf("%s_%s", o.ProjID, o.ObsID)
	if err := ds.DB.WithContext(ctx).Save(o).Error; err != nil {
		return dbError(err, "save_observation")
	}
	return nil
}

// SaveBeam inserts or updates a beam record and derives its human object id
// from the hierarchy.
func (ds *DataStore) SaveBeam(ctx context.Context, b *Beam) error {
	if b.ProjID == "" || b.ObsID == "" {
		return errors.Newf("beam requires proj_id and obs_id").
			Category(errors.CategoryValidation).
			Component("datastore").
			Build()
	}
	if b.HashID == "" {
		b.HashID = uuid.New().String()
	}
	b.BeamObjID = fmt.Sprintf("%s_%s_beam%02d", b.ProjID, b.ObsID, b.Index)
	if err := ds.DB.WithContext(ctx).Save(b).Error; err != nil {
		return dbError(err, "save_beam")
	}
	return nil
}

// ListProjects returns all projects in proj_id order.
func (ds *DataStore) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := ds.DB.WithContext(ctx).Order("proj_id ASC").Find(&projects).Error; err != nil {
		return nil, dbError(err, "list_projects")
	}
	return projects, nil
}

// ListObservations returns the observations of one project, or all
// observations when projID is empty, in obs_obj_id order.
func (ds *DataStore) ListObservations(ctx context.Context, projID string) ([]Observation, error) {
	query := ds.DB.WithContext(ctx).Model(&Observation{})
	if projID != "" {
		query = query.Where("proj_id = ?", projID)
	}
	var observations []Observation
	if err := query.Order("obs_obj_id ASC").Find(&observations).Error; err != nil {
		return nil, dbError(err, "list_observations")
	}
	return observations, nil
}

// ListBeams returns beams filtered by project and observation ids, either of
// which may be empty, in beam_obj_id order.
func (ds *DataStore) ListBeams(ctx context.Context, projID, obsID string) ([]Beam, error) {
	query := ds.DB.WithContext(ctx).Model(&Beam{})
	if projID != "" {
		query = query.Where("proj_id = ?", projID)
	}
	if obsID != "" {
		query = query.Where("obs_id = ?", obsID)
	}
	var beams []Beam
	if err := query.Order("beam_obj_id ASC").Find(&beams).Error; err != nil {
		return nil, dbError(err, "list_beams")
	}
	return beams, nil
}

// ObservationStatus summarizes triage progress per observation: how many
// candidates it holds and how many of those have at least one rating.
type ObservationStatus struct {
	ProjID     string `gorm:"column:proj_id" json:"proj_id"`
	ObsID      string `gorm:"column:obs_id" json:"obs_id"`
	Candidates int64  `gorm:"column:candidates" json:"candidates"`
	Rated      int64  `gorm:"column:rated" json:"rated"`
}

// ObservationStatus reports per-observation candidate and rated counts,
// optionally scoped to one project.
func (ds *DataStore) ObservationStatus(ctx context.Context, projID string) ([]ObservationStatus, error) {
	query := ds.DB.WithContext(ctx).Model(&Candidate{}).
		Select("proj_id, obs_id, COUNT(*) AS candidates, " +
			"SUM(CASE WHEN EXISTS (SELECT 1 FROM ratings WHERE ratings.candidate_id = candidates.hash_id) THEN 1 ELSE 0 END) AS rated").
		Group("proj_id, obs_id")
	if projID != "" {
		query = query.Where("proj_id = ?", projID)
	}

	var status []ObservationStatus
	if err := query.Order("proj_id ASC, obs_id ASC").Scan(&status).Error; err != nil {
		return nil, dbError(err, "observation_status")
	}
	return status, nil
}

func dbError(err error, operation string) error {
	return errors.New(err).
		Category(errors.CategoryDatabase).
		Component("datastore").
		Context("operation", operation).
		Build()
}
