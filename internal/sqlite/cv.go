package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

const (
	upsertCVSQL = `INSERT INTO cvs (cv_id, label, name, uri, version) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(label) DO UPDATE SET name = excluded.name, uri = excluded.uri, version = excluded.version
		RETURNING cv_id`

	selectCVSQL = `SELECT cv_id, label, name, uri, version FROM cvs`
)

// MergeCV implements types.Gateway. A CV with an existing label is updated
// in place.
func (b *Backend) MergeCV(ctx context.Context, cv *types.CV) error {
	return b.withDB(func(db *sql.DB) error {
		if err := resolveCV(ctx, db, cv); err != nil {
			return err
		}
		return inTx(ctx, db, func(tx *sql.Tx) error {
			return upsertCV(ctx, tx, cv)
		})
	})
}

// upsertCV writes cv and assigns the ID of the stored row.
func upsertCV(ctx context.Context, q queryer, cv *types.CV) error {
	id := cv.CVID
	if id == "" {
		id = newUUID()
	}
	var stored string
	err := q.QueryRowContext(ctx, upsertCVSQL, id, cv.Label, cv.Name, cv.URI, cv.Version).Scan(&stored)
	if err != nil {
		return fmt.Errorf("merging cv %s: %w", cv.Label, err)
	}
	cv.CVID = stored
	return nil
}

// GetCV implements types.Querier.
func (b *Backend) GetCV(ctx context.Context, label string) (*types.CV, error) {
	var cv *types.CV
	err := b.withDB(func(db *sql.DB) error {
		var err error
		cv, err = getCV(ctx, db, `WHERE label = ?`, label)
		return err
	})
	return cv, err
}

func getCV(ctx context.Context, q queryer, where string, arg any) (*types.CV, error) {
	cv := &types.CV{}
	err := q.QueryRowContext(ctx, selectCVSQL+" "+where, arg).
		Scan(&cv.CVID, &cv.Label, &cv.Name, &cv.URI, &cv.Version)
	if err != nil {
		return nil, fmt.Errorf("getting cv: %w", notFound(err))
	}
	return cv, nil
}
