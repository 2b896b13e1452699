package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

const selectValuePointsSQL = `SELECT i.name, r.name, r.sample_date, p.accession, p.name,
	v.first_value, v.n, v.n_distinct,
	v.min_value, v.max_value, v.mean_value, v.median_value, v.sd_value, v.q1_value, v.q3_value
	FROM run_values v
	JOIN runs r ON r.run_id = v.run_id
	JOIN instruments i ON i.instrument_id = r.instrument_id
	JOIN properties p ON p.property_id = v.property_id`

// FetchValues implements types.Querier. Points are ordered by sample date.
func (b *Backend) FetchValues(ctx context.Context, filter types.Filter) ([]types.ValuePoint, error) {
	var (
		conds []string
		args  []any
		limit int
	)
	for key, val := range filter {
		switch key {
		case "instrument", "accession":
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string", types.ErrInvalidFilter, key)
			}
			col := "i.name"
			if key == "accession" {
				col = "p.accession"
			}
			conds = append(conds, col+" = ?")
			args = append(args, s)
		case "from", "to":
			t, ok := val.(time.Time)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a time.Time", types.ErrInvalidFilter, key)
			}
			op := ">="
			if key == "to" {
				op = "<="
			}
			conds = append(conds, "r.sample_date "+op+" ?")
			args = append(args, formatTime(t))
		case "limit":
			n, ok := val.(int)
			if !ok || n < 0 {
				return nil, fmt.Errorf("%w: limit must be a non-negative int", types.ErrInvalidFilter)
			}
			limit = n
		default:
			return nil, fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, key)
		}
	}

	query := selectValuePointsSQL
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY r.sample_date, i.name, r.name, p.name"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var out []types.ValuePoint
	err := b.withDB(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("fetching values: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				vp    types.ValuePoint
				date  string
				stats [7]sql.NullFloat64
			)
			err := rows.Scan(&vp.Instrument, &vp.Run, &date, &vp.Accession, &vp.Property,
				&vp.FirstValue, &vp.N, &vp.NDistinct,
				&stats[0], &stats[1], &stats[2], &stats[3], &stats[4], &stats[5], &stats[6])
			if err != nil {
				return fmt.Errorf("scanning value: %w", err)
			}
			if vp.SampleDate, err = parseTime(date); err != nil {
				return err
			}
			vp.Numeric = numericSummary(stats)
			out = append(out, vp)
		}
		return rows.Err()
	})
	return out, err
}
