// model.go defines the persistent data model for the candidate catalog.
package datastore

import "time"

// Confidence values allowed on a Rating.
const (
	ConfidenceTrue   = "T"
	ConfidenceFalse  = "F"
	ConfidenceUnsure = "U"
)

// Project is the top of the ownership hierarchy. Records are created by the
// ingestion pipeline; this service reads them as scope filters.
type Project struct {
	HashID      string `gorm:"column:hash_id;primaryKey;size:36" json:"hash_id"`
	ProjID      string `gorm:"column:proj_id;size:64;uniqueIndex" json:"proj_id"`
	Name        string `gorm:"size:64" json:"name"`
	Description string `gorm:"size:256" json:"description,omitempty"`
}

// Observation groups the beams of one scheduling block within a project.
type Observation struct {
	HashID      string     `gorm:"column:hash_id;primaryKey;size:36" json:"hash_id"`
	ProjID      string     `gorm:"column:proj_id;size:64;index" json:"proj_id"`
	ObsID       string     `gorm:"column:obs_id;size:64;index" json:"obs_id"`
	ObsObjID    string     `gorm:"column:obs_obj_id;uniqueIndex" json:"obs_obj_id"` // <proj_id>_<obs_id>
	ObsStart    *time.Time `gorm:"column:obs_start" json:"obs_start,omitempty"`
	Name        string     `gorm:"size:128" json:"name"`
	Description string     `gorm:"size:1024" json:"description,omitempty"`
}

// Beam is one telescope beam within an observation.
type Beam struct {
	HashID      string `gorm:"column:hash_id;primaryKey;size:36" json:"hash_id"`
	ProjID      string `gorm:"column:proj_id;size:64;index" json:"proj_id"`
	ObsID       string `gorm:"column:obs_id;size:64;index" json:"obs_id"`
	Index       int    `gorm:"column:beam_index" json:"beam_index"`
	BeamObjID   string `gorm:"column:beam_obj_id;uniqueIndex" json:"beam_obj_id"` // <proj_id>_<obs_id>_beam<index>
	Description string `gorm:"size:1024" json:"description,omitempty"`
}

// Candidate is one detected transient source. The numeric statistics are
// pointers: the detection pipeline emits NaN/Inf for undefined values, which
// are stored as NULL so they never satisfy a range bound and never contribute
// to aggregate bounds.
type Candidate struct {
	HashID    string `gorm:"column:hash_id;primaryKey;size:36" json:"hash_id"`
	ProjID    string `gorm:"column:proj_id;size:64;index" json:"proj_id"`
	ObsID     string `gorm:"column:obs_id;size:64;index" json:"obs_id"`
	BeamIndex int    `gorm:"column:beam_index;index" json:"beam_index"`
	CandObjID string `gorm:"column:cand_obj_id;uniqueIndex" json:"cand_obj_id"` // <proj_id>_<obs_id>_beam<index>_<name>

	Name   string  `gorm:"size:100" json:"name"`
	RAStr  string  `gorm:"column:ra_str;size:100" json:"ra_str"`
	DecStr string  `gorm:"column:dec_str;size:100" json:"dec_str"`
	RA     float64 `gorm:"column:ra;index" json:"ra"`
	Dec    float64 `gorm:"column:dec;index" json:"dec"`

	ChiSquare         *float64 `gorm:"column:chi_square" json:"chi_square"`
	ChiSquareSigma    *float64 `gorm:"column:chi_square_sigma" json:"chi_square_sigma"`
	ChiSquareLogSigma *float64 `gorm:"column:chi_square_log_sigma" json:"chi_square_log_sigma"`
	PeakMap           *float64 `gorm:"column:peak_map" json:"peak_map"`
	PeakMapSigma      *float64 `gorm:"column:peak_map_sigma" json:"peak_map_sigma"`
	PeakMapLogSigma   *float64 `gorm:"column:peak_map_log_sigma" json:"peak_map_log_sigma"`
	GaussianMap       *float64 `gorm:"column:gaussian_map" json:"gaussian_map"`
	GaussianMapSigma  *float64 `gorm:"column:gaussian_map_sigma" json:"gaussian_map_sigma"`
	StdMap            *float64 `gorm:"column:std_map" json:"std_map"`
	MdDeep            *float64 `gorm:"column:md_deep" json:"md_deep"`
	BrightSepArcmin   *float64 `gorm:"column:bright_sep_arcmin" json:"bright_sep_arcmin"`
	BeamSepDeg        *float64 `gorm:"column:beam_sep_deg" json:"beam_sep_deg"`
	DeepIntFlux       *float64 `gorm:"column:deep_int_flux" json:"deep_int_flux"`
	DeepPeakFlux      *float64 `gorm:"column:deep_peak_flux" json:"deep_peak_flux"`
	DeepSepArcsec     *float64 `gorm:"column:deep_sep_arcsec" json:"deep_sep_arcsec"`

	DeepNum  int    `gorm:"column:deep_num;index" json:"deep_num"`
	DeepName string `gorm:"column:deep_name;size:100" json:"deep_name"`

	// Parent beam pointing and matched deep-image counterpart positions.
	BeamRA     float64 `gorm:"column:beam_ra" json:"beam_ra"`
	BeamDec    float64 `gorm:"column:beam_dec" json:"beam_dec"`
	DeepRADeg  float64 `gorm:"column:deep_ra_deg" json:"deep_ra_deg"`
	DeepDecDeg float64 `gorm:"column:deep_dec_deg" json:"deep_dec_deg"`

	Notes string `gorm:"size:1024" json:"notes,omitempty"`

	Ratings []Rating `gorm:"foreignKey:CandidateID;references:HashID;constraint:OnDelete:CASCADE" json:"ratings,omitempty"`
}

// Rating is one user's opinion of a candidate. One rating per
// (candidate, user); repeated submissions update in place.
type Rating struct {
	HashID      string    `gorm:"column:hash_id;primaryKey;size:36" json:"hash_id"`
	CandidateID string    `gorm:"column:candidate_id;size:36;index;uniqueIndex:idx_rating_candidate_user;not null" json:"candidate_id"`
	UserID      string    `gorm:"column:user_id;size:64;uniqueIndex:idx_rating_candidate_user;not null" json:"user_id"`
	Confidence  string    `gorm:"size:1" json:"confidence"` // T, F or U
	TagID       string    `gorm:"column:tag_id;size:36;index" json:"tag_id"`
	Notes       string    `gorm:"size:1024" json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tag is a classification label ("Noise", "FRB", ...), globally unique by
// name and shared across projects.
type Tag struct {
	HashID      string `gorm:"column:hash_id;primaryKey;size:36" json:"hash_id"`
	Name        string `gorm:"size:64;uniqueIndex" json:"name"`
	Description string `gorm:"size:256" json:"description,omitempty"`
}

// ATNFPulsar is one row of the read-only pulsar catalog mirror.
type ATNFPulsar struct {
	ID   uint     `gorm:"primaryKey" json:"id"`
	Name string   `gorm:"size:32;uniqueIndex;not null" json:"name"`
	RAJ  float64  `gorm:"column:raj" json:"raj"`   // J2000 right ascension, degrees
	DecJ float64  `gorm:"column:decj" json:"decj"` // J2000 declination, degrees
	DM   *float64 `gorm:"column:dm" json:"dm"`     // dispersion measure, cm^-3 pc
	P0   *float64 `gorm:"column:p0" json:"p0"`     // barycentric period, s
	S400 *float64 `gorm:"column:s400" json:"s400"` // mean flux density at 400 MHz, mJy
}
