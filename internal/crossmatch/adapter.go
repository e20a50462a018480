// Package crossmatch fans a cone search out over heterogeneous catalog
// sources and merges the results into one separation-ordered set.
package crossmatch

import (
	"context"
	"sort"

	"github.com/vast-survey/triage/internal/datastore"
	"github.com/vast-survey/triage/internal/simbad"
	"github.com/vast-survey/triage/internal/skygeo"
)

// Provenance identifies which catalog a match came from.
type Provenance string

const (
	SourceLocal  Provenance = "local"  // the candidate store itself
	SourceSimbad Provenance = "simbad" // remote name-resolution service
	SourcePulsar Provenance = "pulsar" // ATNF pulsar mirror
)

// Match is one cross-matched object. Positions are carried in decimal
// degrees and sexagesimal form; separations in arcminutes.
type Match struct {
	Name      string     `json:"name"`
	RA        float64    `json:"ra"`
	Dec       float64    `json:"dec"`
	RAStr     string     `json:"ra_str"`
	DecStr    string     `json:"dec_str"`
	SepArcmin float64    `json:"sep_arcmin"`
	Source    Provenance `json:"source"`
}

// Adapter is one cone-search-capable catalog source. Implementations return
// matches within radiusArcmin of center, excluding the record identified by
// excludeID where that concept applies.
type Adapter interface {
	Source() Provenance
	ConeSearch(ctx context.Context, center skygeo.Position, radiusArcmin float64, excludeID string) ([]Match, error)
}

// LocalAdapter matches against the candidate store's own positions. The
// excludeID keeps a candidate from matching itself in nearby-object views.
type LocalAdapter struct {
	Store datastore.Interface
}

func (a *LocalAdapter) Source() Provenance { return SourceLocal }

func (a *LocalAdapter) ConeSearch(ctx context.Context, center skygeo.Position, radiusArcmin float64, excludeID string) ([]Match, error) {
	candidates, err := a.Store.CandidatesWithinRadius(ctx, center, radiusArcmin, excludeID)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		pos := skygeo.Position{RA: c.RA, Dec: c.Dec}
		matches = append(matches, newMatch(c.CandObjID, pos, center, SourceLocal))
	}
	return matches, nil
}

// PulsarAdapter matches against the ATNF pulsar catalog mirror.
type PulsarAdapter struct {
	Store datastore.Interface
}

func (a *PulsarAdapter) Source() Provenance { return SourcePulsar }

func (a *PulsarAdapter) ConeSearch(ctx context.Context, center skygeo.Position, radiusArcmin float64, _ string) ([]Match, error) {
	pulsars, err := a.Store.PulsarsWithinRadius(ctx, center, radiusArcmin)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(pulsars))
	for i := range pulsars {
		p := &pulsars[i]
		pos := skygeo.Position{RA: p.RAJ, Dec: p.DecJ}
		matches = append(matches, newMatch(p.Name, pos, center, SourcePulsar))
	}
	return matches, nil
}

// SimbadAdapter matches against the remote SIMBAD name-resolution service.
// The client clamps the radius to its hard ceiling.
type SimbadAdapter struct {
	Client *simbad.Client
}

func (a *SimbadAdapter) Source() Provenance { return SourceSimbad }

func (a *SimbadAdapter) ConeSearch(ctx context.Context, center skygeo.Position, radiusArcmin float64, _ string) ([]Match, error) {
	sources, err := a.Client.ConeSearch(ctx, center, radiusArcmin)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(sources))
	for _, s := range sources {
		pos := skygeo.Position{RA: s.RA, Dec: s.Dec}
		matches = append(matches, newMatch(s.Name, pos, center, SourceSimbad))
	}
	return matches, nil
}

func newMatch(name string, pos, center skygeo.Position, source Provenance) Match {
	return Match{
		Name:      name,
		RA:        pos.RA,
		Dec:       pos.Dec,
		RAStr:     skygeo.FormatRA(pos.RA),
		DecStr:    skygeo.FormatDec(pos.Dec),
		SepArcmin: skygeo.SeparationArcmin(center, pos),
		Source:    source,
	}
}

// sortMatches orders ascending by separation, breaking ties by the given
// provenance rank and then by name so merge output is deterministic.
func sortMatches(matches []Match, rank map[Provenance]int) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := &matches[i], &matches[j]
		if a.SepArcmin != b.SepArcmin {
			return a.SepArcmin < b.SepArcmin
		}
		if rank[a.Source] != rank[b.Source] {
			return rank[a.Source] < rank[b.Source]
		}
		return a.Name < b.Name
	})
}
