package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/golang/snappy"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

const (
	upsertEventSQL = `INSERT INTO events (event_id, instrument_id, event_date, event_type, problem, solution, extra,
		attachment_name, attachment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instrument_id, event_date) DO UPDATE SET
			event_type = excluded.event_type,
			problem = excluded.problem,
			solution = excluded.solution,
			extra = excluded.extra,
			attachment_name = excluded.attachment_name,
			attachment = excluded.attachment
		RETURNING event_id`

	selectEventSQL = `SELECT e.event_id, i.name, e.instrument_id, e.event_date, e.event_type,
		e.problem, e.solution, e.extra, e.attachment_name, e.attachment
		FROM events e JOIN instruments i ON i.instrument_id = e.instrument_id`

	deleteEventSQL = `DELETE FROM events WHERE instrument_id = ? AND event_date = ?`
)

// MergeEvent implements types.Gateway. An event at an existing instrument
// and date is updated in place. Attachments are stored snappy-compressed.
func (b *Backend) MergeEvent(ctx context.Context, ev *types.Event) error {
	return b.withDB(func(db *sql.DB) error {
		et, err := types.ParseEventType(string(ev.Type))
		if err != nil {
			return err
		}
		ev.Type = et
		if err := resolveEvent(ctx, db, ev); err != nil {
			return err
		}

		return inTx(ctx, db, func(tx *sql.Tx) error {
			id := ev.EventID
			if id == "" {
				id = newUUID()
			}
			var (
				name       any
				attachment any
			)
			if len(ev.Attachment) > 0 {
				name = ev.AttachmentName
				attachment = snappy.Encode(nil, ev.Attachment)
			}
			var stored string
			err := tx.QueryRowContext(ctx, upsertEventSQL,
				id, ev.InstrumentID, formatTime(ev.Date), string(ev.Type),
				ev.Problem, ev.Solution, ev.Extra, name, attachment).Scan(&stored)
			if err != nil {
				return fmt.Errorf("merging event %s: %w", ev.Key(), err)
			}
			ev.EventID = stored
			return nil
		})
	})
}

// DeleteEvent implements types.Gateway. Returns ErrNotFound when no event
// has the key.
func (b *Backend) DeleteEvent(ctx context.Context, instrument string, date time.Time) error {
	return b.withDB(func(db *sql.DB) error {
		instID, err := resolveOwner(ctx, db, instrument)
		if err != nil {
			return err
		}
		return inTx(ctx, db, func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx, deleteEventSQL, instID, formatTime(date))
			if err != nil {
				return fmt.Errorf("deleting event: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("deleting event: %w", err)
			}
			if n == 0 {
				return fmt.Errorf("%s: %w", types.EventKey(instrument, date), types.ErrNotFound)
			}
			return nil
		})
	})
}

// GetEvent implements types.Querier.
func (b *Backend) GetEvent(ctx context.Context, instrument string, date time.Time) (*types.Event, error) {
	var ev *types.Event
	err := b.withDB(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, selectEventSQL+` WHERE i.name = ? AND e.event_date = ?`,
			instrument, formatTime(date))
		var err error
		ev, err = scanEvent(row)
		if err != nil {
			return fmt.Errorf("getting event %s: %w", types.EventKey(instrument, date), notFound(err))
		}
		return nil
	})
	return ev, err
}

// FetchEvents implements types.Querier.
func (b *Backend) FetchEvents(ctx context.Context, filter types.Filter) ([]*types.Event, error) {
	var out []*types.Event
	err := b.withDB(func(db *sql.DB) error {
		var err error
		out, err = fetchEvents(ctx, db, filter)
		return err
	})
	return out, err
}

func fetchEvents(ctx context.Context, q queryer, filter types.Filter) ([]*types.Event, error) {
	var (
		conds []string
		args  []any
	)
	for key, val := range filter {
		switch key {
		case "instrument":
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("%w: instrument must be a string", types.ErrInvalidFilter)
			}
			conds = append(conds, "i.name = ?")
			args = append(args, s)
		case "type":
			var et types.EventType
			switch v := val.(type) {
			case string:
				et = types.EventType(v)
			case types.EventType:
				et = v
			default:
				return nil, fmt.Errorf("%w: type must be a string or EventType", types.ErrInvalidFilter)
			}
			conds = append(conds, "e.event_type = ?")
			args = append(args, string(et))
		case "from", "to":
			t, ok := val.(time.Time)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a time.Time", types.ErrInvalidFilter, key)
			}
			op := ">="
			if key == "to" {
				op = "<="
			}
			conds = append(conds, "e.event_date "+op+" ?")
			args = append(args, formatTime(t))
		default:
			return nil, fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, key)
		}
	}

	query := selectEventSQL
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY e.event_date, i.name"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}
	defer rows.Close()

	var out []*types.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func scanEvent(s scanner) (*types.Event, error) {
	ev := &types.Event{}
	var (
		date, et   string
		name       sql.NullString
		attachment []byte
	)
	err := s.Scan(&ev.EventID, &ev.InstrumentName, &ev.InstrumentID, &date, &et,
		&ev.Problem, &ev.Solution, &ev.Extra, &name, &attachment)
	if err != nil {
		return nil, err
	}
	if ev.Date, err = parseTime(date); err != nil {
		return nil, err
	}
	ev.Type = types.EventType(et)
	ev.AttachmentName = name.String
	if len(attachment) > 0 {
		if ev.Attachment, err = snappy.Decode(nil, attachment); err != nil {
			return nil, fmt.Errorf("decoding attachment: %w", err)
		}
	}
	return ev, nil
}
