package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ResolveID implements types.Resolver.
func (b *Backend) ResolveID(ctx context.Context, key types.NaturalKey) (string, bool, error) {
	var (
		id    string
		found bool
	)
	err := b.withDB(func(db *sql.DB) error {
		var err error
		id, found, err = resolveKey(ctx, db, key)
		return err
	})
	return id, found, err
}

func resolveKey(ctx context.Context, q queryer, key types.NaturalKey) (string, bool, error) {
	switch key.Kind {
	case types.KindCV:
		return lookupID(ctx, q, `SELECT cv_id FROM cvs WHERE label = ?`, key.Name)
	case types.KindInstrument:
		return lookupID(ctx, q, `SELECT instrument_id FROM instruments WHERE name = ?`, key.Name)
	case types.KindProperty:
		return lookupID(ctx, q, `SELECT property_id FROM properties WHERE accession = ?`, key.Name)
	case types.KindRun:
		return lookupID(ctx, q, `SELECT r.run_id FROM runs r
			JOIN instruments i ON i.instrument_id = r.instrument_id
			WHERE i.name = ? AND r.name = ?`, key.Owner, key.Name)
	case types.KindEvent:
		return lookupID(ctx, q, `SELECT e.event_id FROM events e
			JOIN instruments i ON i.instrument_id = e.instrument_id
			WHERE i.name = ? AND e.event_date = ?`, key.Owner, formatTime(key.Date))
	default:
		return "", false, fmt.Errorf("%w: %q", types.ErrInvalidKind, key.Kind)
	}
}

func lookupID(ctx context.Context, q queryer, query string, args ...any) (string, bool, error) {
	var id string
	err := q.QueryRowContext(ctx, query, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolving id: %w", err)
	}
	return id, true, nil
}

// resolveCV assigns the stored ID of cv, or clears it when the label is new.
func resolveCV(ctx context.Context, q queryer, cv *types.CV) error {
	if strings.TrimSpace(cv.Label) == "" {
		return fmt.Errorf("%w: cv label is empty", types.ErrInvalidName)
	}
	id, _, err := resolveKey(ctx, q, cv.Key())
	if err != nil {
		return err
	}
	cv.CVID = id
	return nil
}

// resolveInstrument assigns the stored ID of inst and resolves its CV.
func resolveInstrument(ctx context.Context, q queryer, inst *types.Instrument) (bool, error) {
	if strings.TrimSpace(inst.Name) == "" {
		return false, fmt.Errorf("%w: instrument name is empty", types.ErrInvalidName)
	}
	id, found, err := resolveKey(ctx, q, inst.Key())
	if err != nil {
		return false, err
	}
	inst.InstrumentID = id
	if err := resolveCV(ctx, q, &inst.CV); err != nil {
		return false, err
	}
	inst.CVID = inst.CV.CVID
	return found, nil
}

// resolveProperty assigns the stored ID of prop and resolves its CV.
func resolveProperty(ctx context.Context, q queryer, prop *types.Property) (bool, error) {
	if prop.Accession == "" {
		return false, fmt.Errorf("%w: property accession is empty", types.ErrInvalidName)
	}
	id, found, err := resolveKey(ctx, q, prop.Key())
	if err != nil {
		return false, err
	}
	prop.PropertyID = id
	if err := resolveCV(ctx, q, &prop.CV); err != nil {
		return false, err
	}
	prop.CVID = prop.CV.CVID
	return found, nil
}

// resolveOwner assigns the ID of the owning instrument. A missing instrument
// is ErrInstrumentNotFound.
func resolveOwner(ctx context.Context, q queryer, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: instrument name is empty", types.ErrInvalidName)
	}
	id, found, err := resolveKey(ctx, q, types.InstrumentKey(name))
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: %s", types.ErrInstrumentNotFound, name)
	}
	return id, nil
}

// resolveRun assigns the owning instrument ID and the run ID, then every
// property referenced by the run's values. It reports whether the run
// already exists.
func resolveRun(ctx context.Context, q queryer, run *types.Run) (bool, error) {
	if strings.TrimSpace(run.Name) == "" {
		return false, fmt.Errorf("%w: run name is empty", types.ErrInvalidName)
	}
	instID, err := resolveOwner(ctx, q, run.InstrumentName)
	if err != nil {
		return false, err
	}
	run.InstrumentID = instID

	id, found, err := resolveKey(ctx, q, run.Key())
	if err != nil {
		return false, err
	}
	run.RunID = id
	if found {
		return true, nil
	}

	for _, v := range run.Values {
		if _, err := resolveProperty(ctx, q, &v.Property); err != nil {
			return false, err
		}
	}
	return false, nil
}

// resolveEvent assigns the owning instrument ID and the event ID.
func resolveEvent(ctx context.Context, q queryer, ev *types.Event) error {
	if ev.Date.IsZero() {
		return fmt.Errorf("%w: event date is zero", types.ErrInvalidData)
	}
	instID, err := resolveOwner(ctx, q, ev.InstrumentName)
	if err != nil {
		return err
	}
	ev.InstrumentID = instID

	id, _, err := resolveKey(ctx, q, ev.Key())
	if err != nil {
		return err
	}
	ev.EventID = id
	return nil
}
