package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

const (
	insertRunSQL = `INSERT INTO runs (run_id, instrument_id, name, storage_path, sample_date) VALUES (?, ?, ?, ?, ?)`

	insertValueSQL = `INSERT INTO run_values (value_id, run_id, property_id, first_value, n, n_distinct,
		min_value, max_value, mean_value, median_value, sd_value, q1_value, q3_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertMetadataSQL = `INSERT INTO run_metadata (metadata_id, run_id, name, value) VALUES (?, ?, ?, ?)`
	linkPropertySQL   = `INSERT OR IGNORE INTO instrument_properties (instrument_id, property_id) VALUES (?, ?)`

	selectRunSQL = `SELECT r.run_id, r.name, i.name, r.instrument_id, r.storage_path, r.sample_date
		FROM runs r JOIN instruments i ON i.instrument_id = r.instrument_id`

	selectValuesSQL = `SELECT v.value_id, v.run_id, v.first_value, v.n, v.n_distinct,
		v.min_value, v.max_value, v.mean_value, v.median_value, v.sd_value, v.q1_value, v.q3_value,
		p.property_id, p.accession, p.name, p.value_type, p.is_numeric, p.cv_id,
		c.cv_id, c.label, c.name, c.uri, c.version
		FROM run_values v
		JOIN properties p ON p.property_id = v.property_id
		JOIN cvs c ON c.cv_id = p.cv_id
		WHERE v.run_id = ? ORDER BY p.name`

	selectMetadataSQL = `SELECT metadata_id, run_id, name, value FROM run_metadata WHERE run_id = ? ORDER BY name`
)

// InsertRun implements types.Gateway. The owning instrument must exist. A
// run key already in the store is a conflict. Properties referenced by
// values are reused by accession or created; the run, the new properties,
// the values and the metadata are written in one transaction.
func (b *Backend) InsertRun(ctx context.Context, run *types.Run) error {
	return b.withDB(func(db *sql.DB) error {
		if err := validateRun(run); err != nil {
			return err
		}
		found, err := resolveRun(ctx, db, run)
		if err != nil {
			return err
		}
		if found {
			return types.NewConflict(run.Key())
		}

		return inTx(ctx, db, func(tx *sql.Tx) error {
			if err := mergeRunProperties(ctx, tx, run); err != nil {
				return err
			}

			runID := newUUID()
			_, err := tx.ExecContext(ctx, insertRunSQL,
				runID, run.InstrumentID, run.Name, run.StoragePath, formatTime(run.SampleDate))
			if isUniqueViolation(err) {
				return types.NewConflict(run.Key())
			}
			if err != nil {
				return fmt.Errorf("inserting run %s: %w", run.Key(), err)
			}
			run.RunID = runID

			for _, v := range run.Values {
				if err := insertValue(ctx, tx, runID, v); err != nil {
					return err
				}
			}
			for _, m := range run.Metadata {
				id := newUUID()
				if _, err := tx.ExecContext(ctx, insertMetadataSQL, id, runID, m.Name, m.Value); err != nil {
					return fmt.Errorf("inserting metadata %s: %w", m.Name, err)
				}
				m.MetadataID = id
				m.RunID = runID
			}
			return nil
		})
	})
}

func validateRun(run *types.Run) error {
	if run.SampleDate.IsZero() {
		return fmt.Errorf("%w: run %s has no sample date", types.ErrInvalidData, run.Key())
	}
	accessions := make(map[string]bool, len(run.Values))
	for _, v := range run.Values {
		if v == nil {
			return fmt.Errorf("%w: run %s has a nil value", types.ErrInvalidData, run.Key())
		}
		if err := validateProperty(&v.Property); err != nil {
			return err
		}
		if accessions[v.Property.Accession] {
			return fmt.Errorf("%w: run %s has two values for %s", types.ErrInvalidData, run.Key(), v.Property.Accession)
		}
		accessions[v.Property.Accession] = true
	}
	names := make(map[string]bool, len(run.Metadata))
	for _, m := range run.Metadata {
		if m == nil || strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: run %s has an unnamed metadata entry", types.ErrInvalidData, run.Key())
		}
		if names[m.Name] {
			return fmt.Errorf("%w: run %s has two metadata entries named %s", types.ErrInvalidData, run.Key(), m.Name)
		}
		names[m.Name] = true
	}
	return nil
}

// mergeRunProperties upserts the CVs of the run's properties, creates the
// properties that resolution did not find, and links every property to the
// owning instrument.
func mergeRunProperties(ctx context.Context, tx *sql.Tx, run *types.Run) error {
	cvIDs := make(map[string]string)
	for _, v := range run.Values {
		prop := &v.Property
		if id, ok := cvIDs[prop.CV.Label]; ok {
			prop.CV.CVID = id
		} else {
			if err := upsertCV(ctx, tx, &prop.CV); err != nil {
				return err
			}
			cvIDs[prop.CV.Label] = prop.CV.CVID
		}

		if prop.PropertyID == "" {
			if err := insertProperty(ctx, tx, prop); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, linkPropertySQL, run.InstrumentID, prop.PropertyID); err != nil {
			return fmt.Errorf("linking property %s: %w", prop.Accession, err)
		}
	}
	return nil
}

func insertValue(ctx context.Context, tx *sql.Tx, runID string, v *types.Value) error {
	var stats [7]any
	if s := v.Numeric; s != nil {
		stats = [7]any{s.Min, s.Max, s.Mean, s.Median, s.StdDev, s.Q1, s.Q3}
	}
	id := newUUID()
	_, err := tx.ExecContext(ctx, insertValueSQL,
		id, runID, v.Property.PropertyID, v.FirstValue, v.N, v.NDistinct,
		stats[0], stats[1], stats[2], stats[3], stats[4], stats[5], stats[6])
	if err != nil {
		return fmt.Errorf("inserting value for %s: %w", v.Property.Accession, err)
	}
	v.ValueID = id
	v.RunID = runID
	return nil
}

// GetRun implements types.Querier.
func (b *Backend) GetRun(ctx context.Context, instrument, name string, opts types.FetchOptions) (*types.Run, error) {
	var run *types.Run
	err := b.withDB(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, selectRunSQL+` WHERE i.name = ? AND r.name = ?`, instrument, name)
		var err error
		run, err = scanRun(row)
		if err != nil {
			return fmt.Errorf("getting run %s: %w", types.RunKey(instrument, name), notFound(err))
		}
		if opts.Values {
			if run.Values, err = runValues(ctx, db, run.RunID); err != nil {
				return err
			}
		}
		if opts.Metadata {
			if run.Metadata, err = runMetadata(ctx, db, run.RunID); err != nil {
				return err
			}
		}
		return nil
	})
	return run, err
}

func scanRun(s scanner) (*types.Run, error) {
	run := &types.Run{}
	var date string
	if err := s.Scan(&run.RunID, &run.Name, &run.InstrumentName, &run.InstrumentID, &run.StoragePath, &date); err != nil {
		return nil, err
	}
	t, err := parseTime(date)
	if err != nil {
		return nil, err
	}
	run.SampleDate = t
	return run, nil
}

func runValues(ctx context.Context, q queryer, runID string) ([]*types.Value, error) {
	rows, err := q.QueryContext(ctx, selectValuesSQL, runID)
	if err != nil {
		return nil, fmt.Errorf("fetching values: %w", err)
	}
	defer rows.Close()

	var out []*types.Value
	for rows.Next() {
		v := &types.Value{}
		var (
			stats   [7]sql.NullFloat64
			vt      string
			numeric int
		)
		p := &v.Property
		err := rows.Scan(&v.ValueID, &v.RunID, &v.FirstValue, &v.N, &v.NDistinct,
			&stats[0], &stats[1], &stats[2], &stats[3], &stats[4], &stats[5], &stats[6],
			&p.PropertyID, &p.Accession, &p.Name, &vt, &numeric, &p.CVID,
			&p.CV.CVID, &p.CV.Label, &p.CV.Name, &p.CV.URI, &p.CV.Version)
		if err != nil {
			return nil, fmt.Errorf("scanning value: %w", err)
		}
		p.ValueType = types.ValueType(vt)
		p.IsNumeric = numeric != 0
		v.Numeric = numericSummary(stats)
		out = append(out, v)
	}
	return out, rows.Err()
}

// numericSummary rebuilds the statistics of a value; nil when they were
// stored as NULL.
func numericSummary(stats [7]sql.NullFloat64) *types.NumericSummary {
	if !stats[0].Valid {
		return nil
	}
	return &types.NumericSummary{
		Min:    stats[0].Float64,
		Max:    stats[1].Float64,
		Mean:   stats[2].Float64,
		Median: stats[3].Float64,
		StdDev: stats[4].Float64,
		Q1:     stats[5].Float64,
		Q3:     stats[6].Float64,
	}
}

func runMetadata(ctx context.Context, q queryer, runID string) ([]*types.Metadata, error) {
	rows, err := q.QueryContext(ctx, selectMetadataSQL, runID)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata: %w", err)
	}
	defer rows.Close()

	var out []*types.Metadata
	for rows.Next() {
		m := &types.Metadata{}
		if err := rows.Scan(&m.MetadataID, &m.RunID, &m.Name, &m.Value); err != nil {
			return nil, fmt.Errorf("scanning metadata: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
