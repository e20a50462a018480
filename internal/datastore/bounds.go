package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/vast-survey/triage/internal/errors"
)

// Bounds is the observed (min, max) of one statistic column over finite,
// non-NULL values. A nil side means the column has no stored values yet.
type Bounds struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// BoundsSet maps statistic column name to its current bounds.
type BoundsSet map[string]Bounds

// AggregateBounds returns the per-statistic (min, max) over the candidate
// store, optionally scoped to one project. NULL statistics are skipped by
// SQL aggregation, which keeps the pipeline's NaN/Inf values out of the
// bounds. Results are cached briefly; a one-refresh lag against live data
// is tolerated.
func (ds *DataStore) AggregateBounds(ctx context.Context, projID string) (BoundsSet, error) {
	cacheKey := "bounds:" + projID
	if ds.boundsCache != nil {
		if cached, found := ds.boundsCache.Get(cacheKey); found {
			if set, ok := cached.(BoundsSet); ok {
				return set, nil
			}
		}
	}

	cols := StatColumns()
	sort.Strings(cols)

	exprs := make([]string, 0, len(cols)*2)
	for _, col := range cols {
		exprs = append(exprs, fmt.Sprintf("MIN(%s)", col), fmt.Sprintf("MAX(%s)", col))
	}
	query := fmt.Sprintf("SELECT %s FROM candidates", strings.Join(exprs, ", "))

	var args []any
	if projID != "" {
		query += " WHERE proj_id = ?"
		args = append(args, projID)
	}

	rows, err := ds.DB.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "aggregate_bounds").
			Build()
	}
	defer func() { _ = rows.Close() }()

	values := make([]sql.NullFloat64, len(cols)*2)
	dest := make([]any, len(values))
	for i := range values {
		dest[i] = &values[i]
	}

	set := make(BoundsSet, len(cols))
	if rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryDatabase).
				Component("datastore").
				Context("operation", "aggregate_bounds").
				Build()
		}
		for i, col := range cols {
			var b Bounds
			if v := values[i*2]; v.Valid {
				minVal := v.Float64
				b.Min = &minVal
			}
			if v := values[i*2+1]; v.Valid {
				maxVal := v.Float64
				b.Max = &maxVal
			}
			set[col] = b
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDatabase).
			Component("datastore").
			Context("operation", "aggregate_bounds").
			Build()
	}

	if ds.boundsCache != nil {
		ds.boundsCache.SetDefault(cacheKey, set)
	}
	return set, nil
}
