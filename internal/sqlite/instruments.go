package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

const (
	insertInstrumentSQL = `INSERT INTO instruments (instrument_id, name, model, cv_id) VALUES (?, ?, ?, ?)`

	selectInstrumentSQL = `SELECT i.instrument_id, i.name, i.model, i.cv_id,
		c.cv_id, c.label, c.name, c.uri, c.version
		FROM instruments i JOIN cvs c ON c.cv_id = i.cv_id`
)

// InsertInstrument implements types.Gateway. An instrument name already in
// the store is a conflict and nothing is written.
func (b *Backend) InsertInstrument(ctx context.Context, inst *types.Instrument) error {
	return b.withDB(func(db *sql.DB) error {
		found, err := resolveInstrument(ctx, db, inst)
		if err != nil {
			return err
		}
		if found {
			return types.NewConflict(inst.Key())
		}
		if inst.Model == "" {
			inst.Model = types.ModelUnknown
		}

		return inTx(ctx, db, func(tx *sql.Tx) error {
			if err := upsertCV(ctx, tx, &inst.CV); err != nil {
				return err
			}
			inst.CVID = inst.CV.CVID

			id := newUUID()
			_, err := tx.ExecContext(ctx, insertInstrumentSQL, id, inst.Name, string(inst.Model), inst.CVID)
			if isUniqueViolation(err) {
				return types.NewConflict(inst.Key())
			}
			if err != nil {
				return fmt.Errorf("inserting instrument %s: %w", inst.Name, err)
			}
			inst.InstrumentID = id
			return nil
		})
	})
}

// GetInstrument implements types.Querier.
func (b *Backend) GetInstrument(ctx context.Context, name string, opts types.FetchOptions) (*types.Instrument, error) {
	var inst *types.Instrument
	err := b.withDB(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, selectInstrumentSQL+` WHERE i.name = ?`, name)
		var err error
		inst, err = scanInstrument(row)
		if err != nil {
			return fmt.Errorf("getting instrument %s: %w", name, notFound(err))
		}
		if opts.Properties {
			if inst.Properties, err = instrumentProperties(ctx, db, inst.InstrumentID); err != nil {
				return err
			}
		}
		if opts.Events {
			if inst.Events, err = fetchEvents(ctx, db, types.Filter{"instrument": inst.Name}); err != nil {
				return err
			}
		}
		return nil
	})
	return inst, err
}

// FetchInstruments implements types.Querier.
func (b *Backend) FetchInstruments(ctx context.Context) ([]*types.Instrument, error) {
	var out []*types.Instrument
	err := b.withDB(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, selectInstrumentSQL+` ORDER BY i.name`)
		if err != nil {
			return fmt.Errorf("fetching instruments: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			inst, err := scanInstrument(rows)
			if err != nil {
				return fmt.Errorf("scanning instrument: %w", err)
			}
			out = append(out, inst)
		}
		return rows.Err()
	})
	return out, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstrument(s scanner) (*types.Instrument, error) {
	inst := &types.Instrument{}
	var model string
	err := s.Scan(&inst.InstrumentID, &inst.Name, &model, &inst.CVID,
		&inst.CV.CVID, &inst.CV.Label, &inst.CV.Name, &inst.CV.URI, &inst.CV.Version)
	if err != nil {
		return nil, err
	}
	inst.Model = types.InstrumentModel(model)
	return inst, nil
}

func instrumentProperties(ctx context.Context, q queryer, instrumentID string) ([]*types.Property, error) {
	rows, err := q.QueryContext(ctx, selectPropertySQL+`
		JOIN instrument_properties ip ON ip.property_id = p.property_id
		WHERE ip.instrument_id = ? ORDER BY p.name`, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("fetching instrument properties: %w", err)
	}
	defer rows.Close()

	var out []*types.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
