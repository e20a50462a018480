// store_test.go: shared helpers for datastore tests. All tests run against a
// real in-memory SQLite database to exercise actual GORM behavior.
package datastore

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *DataStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory database")
	require.NoError(t, performAutoMigration(db, false, "SQLite", ":memory:"), "auto-migration failed")

	return &DataStore{DB: db}
}

func fptr(v float64) *float64 {
	return &v
}

func iptr(v int) *int {
	return &v
}

func bptr(v bool) *bool {
	return &v
}

// newCandidate builds a minimal valid candidate at the given position.
func newCandidate(projID, obsID string, beamIndex int, name string, ra, dec float64) Candidate {
	return Candidate{
		HashID:     uuid.New().String(),
		ProjID:     projID,
		ObsID:      obsID,
		BeamIndex:  beamIndex,
		CandObjID:  projID + "_" + obsID + "_beam00_" + name,
		Name:       name,
		RA:         ra,
		Dec:        dec,
		BeamRA:     ra,
		BeamDec:    dec,
		DeepRADeg:  ra,
		DeepDecDeg: dec,
	}
}

func saveCandidates(t *testing.T, ds *DataStore, candidates ...Candidate) {
	t.Helper()
	for i := range candidates {
		require.NoError(t, ds.DB.Create(&candidates[i]).Error, "failed to seed candidate %s", candidates[i].Name)
	}
}
