package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

const (
	insertPropertySQL = `INSERT INTO properties (property_id, accession, name, value_type, is_numeric, cv_id)
		VALUES (?, ?, ?, ?, ?, ?)`

	selectPropertySQL = `SELECT p.property_id, p.accession, p.name, p.value_type, p.is_numeric, p.cv_id,
		c.cv_id, c.label, c.name, c.uri, c.version
		FROM properties p JOIN cvs c ON c.cv_id = p.cv_id`
)

// InsertProperty implements types.Gateway. An accession already in the
// store is a conflict and nothing is written.
func (b *Backend) InsertProperty(ctx context.Context, prop *types.Property) error {
	return b.withDB(func(db *sql.DB) error {
		if err := validateProperty(prop); err != nil {
			return err
		}
		found, err := resolveProperty(ctx, db, prop)
		if err != nil {
			return err
		}
		if found {
			return types.NewConflict(prop.Key())
		}
		return inTx(ctx, db, func(tx *sql.Tx) error {
			if err := upsertCV(ctx, tx, &prop.CV); err != nil {
				return err
			}
			return insertProperty(ctx, tx, prop)
		})
	})
}

func validateProperty(prop *types.Property) error {
	if !types.IsValidValueType(prop.ValueType) {
		return fmt.Errorf("%w: %q", types.ErrInvalidValueType, prop.ValueType)
	}
	if prop.Name == "" {
		return fmt.Errorf("%w: property name is empty", types.ErrInvalidName)
	}
	return nil
}

// insertProperty writes a new property row. The CV must already be stored.
func insertProperty(ctx context.Context, q queryer, prop *types.Property) error {
	prop.CVID = prop.CV.CVID
	id := newUUID()
	_, err := q.ExecContext(ctx, insertPropertySQL,
		id, prop.Accession, prop.Name, string(prop.ValueType), boolToInt(prop.IsNumeric), prop.CVID)
	if isUniqueViolation(err) {
		return types.NewConflict(prop.Key())
	}
	if err != nil {
		return fmt.Errorf("inserting property %s: %w", prop.Accession, err)
	}
	prop.PropertyID = id
	return nil
}

// GetProperty implements types.Querier.
func (b *Backend) GetProperty(ctx context.Context, accession string) (*types.Property, error) {
	var prop *types.Property
	err := b.withDB(func(db *sql.DB) error {
		var err error
		prop, err = scanProperty(db.QueryRowContext(ctx, selectPropertySQL+` WHERE p.accession = ?`, accession))
		if err != nil {
			return fmt.Errorf("getting property %s: %w", accession, notFound(err))
		}
		return nil
	})
	return prop, err
}

func scanProperty(s scanner) (*types.Property, error) {
	p := &types.Property{}
	var (
		vt      string
		numeric int
	)
	err := s.Scan(&p.PropertyID, &p.Accession, &p.Name, &vt, &numeric, &p.CVID,
		&p.CV.CVID, &p.CV.Label, &p.CV.Name, &p.CV.URI, &p.CV.Version)
	if err != nil {
		return nil, err
	}
	p.ValueType = types.ValueType(vt)
	p.IsNumeric = numeric != 0
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
