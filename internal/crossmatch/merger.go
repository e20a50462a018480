package crossmatch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vast-survey/triage/internal/logging"
	"github.com/vast-survey/triage/internal/skygeo"
)

var logger *slog.Logger

func init() {
	logger = logging.ForService("crossmatch")
	if logger == nil {
		logger = slog.Default().With("service", "crossmatch")
	}
}

// Advisory records one source's soft failure during a merge. The merge
// result is still usable; the advisory lets the caller flag partial results.
type Advisory struct {
	Source Provenance `json:"source"`
	Err    string     `json:"error"`
}

// Result is a merged cone search: all collected matches in ascending
// separation order plus any per-source advisories.
type Result struct {
	Matches    []Match    `json:"matches"`
	Advisories []Advisory `json:"advisories,omitempty"`
}

// Partial reports whether any source failed to contribute.
func (r *Result) Partial() bool {
	return len(r.Advisories) > 0
}

// Merger fans a cone search out to its adapters concurrently, bounding each
// adapter by a timeout so total latency tracks the slowest source rather
// than the sum of all of them.
type Merger struct {
	adapters       []Adapter
	adapterTimeout time.Duration
	maxResults     int
}

// NewMerger builds a merger over the given adapters. Adapter order defines
// the provenance tie-break in merged output. maxResults caps the merged set;
// zero means uncapped.
func NewMerger(adapterTimeout time.Duration, maxResults int, adapters ...Adapter) *Merger {
	if adapterTimeout <= 0 {
		adapterTimeout = 20 * time.Second
	}
	return &Merger{
		adapters:       adapters,
		adapterTimeout: adapterTimeout,
		maxResults:     maxResults,
	}
}

// Merge runs the cone search on every adapter and merges the results. An
// adapter that fails or times out contributes zero matches and an advisory;
// it never fails the merge itself.
func (m *Merger) Merge(ctx context.Context, center skygeo.Position, radiusArcmin float64, excludeID string) (*Result, error) {
	perAdapter := make([][]Match, len(m.adapters))
	failures := make([]error, len(m.adapters))

	g, groupCtx := errgroup.WithContext(ctx)
	for i, adapter := range m.adapters {
		g.Go(func() error {
			adapterCtx, cancel := context.WithTimeout(groupCtx, m.adapterTimeout)
			defer cancel()

			matches, err := adapter.ConeSearch(adapterCtx, center, radiusArcmin, excludeID)
			if err != nil {
				failures[i] = err
				logger.Warn("cross-match source failed",
					"source", string(adapter.Source()),
					"radius_arcmin", radiusArcmin,
					"error", err)
				return nil
			}
			perAdapter[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rank := make(map[Provenance]int, len(m.adapters))
	for i, adapter := range m.adapters {
		rank[adapter.Source()] = i
	}

	result := &Result{}
	seen := make(map[string]bool)
	for i := range m.adapters {
		if failures[i] != nil {
			result.Advisories = append(result.Advisories, Advisory{
				Source: m.adapters[i].Source(),
				Err:    failures[i].Error(),
			})
			continue
		}
		for _, match := range perAdapter[i] {
			key := string(match.Source) + "\x00" + match.Name
			if seen[key] {
				continue
			}
			seen[key] = true
			result.Matches = append(result.Matches, match)
		}
	}

	sortMatches(result.Matches, rank)
	if m.maxResults > 0 && len(result.Matches) > m.maxResults {
		result.Matches = result.Matches[:m.maxResults]
	}
	return result, nil
}
