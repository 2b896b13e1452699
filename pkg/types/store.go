package types

import (
	"context"
	"time"
)

// Filter selects rows for Fetch operations. Keys are operation specific;
// values of the wrong type yield ErrInvalidFilter.
type Filter map[string]any

// FetchOptions selects which related rows are loaded with an entity.
// Nothing related is loaded unless asked for.
type FetchOptions struct {
	Properties bool // Instrument: properties it has recorded values for.
	Events     bool // Instrument: its events, oldest first.
	Values     bool // Run: its values with their properties.
	Metadata   bool // Run: its metadata pairs.
}

// Resolver maps natural keys to surrogate IDs. It never writes.
type Resolver interface {
	// ResolveID returns the surrogate ID of the entity with the given
	// natural key and whether it exists.
	ResolveID(ctx context.Context, key NaturalKey) (string, bool, error)
}

// Gateway is the single write path into the store. Every call is one
// transaction: on error the store is unchanged.
type Gateway interface {
	Resolver

	// MergeCV inserts the CV or overwrites name, uri and version of the CV
	// with the same label.
	MergeCV(ctx context.Context, cv *CV) error

	// InsertInstrument creates an instrument and merges its CV. An existing
	// instrument with the same name is a ConflictError.
	InsertInstrument(ctx context.Context, inst *Instrument) error

	// InsertProperty creates a property and merges its CV. An existing
	// property with the same accession is a ConflictError.
	InsertProperty(ctx context.Context, prop *Property) error

	// InsertRun creates a run with its values and metadata. The owning
	// instrument must exist (ErrInstrumentNotFound). Properties referenced by
	// values are reused by accession or created. An existing run with the
	// same key is a ConflictError.
	InsertRun(ctx context.Context, run *Run) error

	// MergeEvent creates the event or updates the event with the same
	// instrument and date in place. The instrument must exist.
	MergeEvent(ctx context.Context, ev *Event) error

	// DeleteEvent removes the event with the given key.
	DeleteEvent(ctx context.Context, instrument string, date time.Time) error
}

// ValuePoint is one row of a value query: a run's value of a property.
type ValuePoint struct {
	Instrument string    `json:"instrument"`
	Run        string    `json:"run"`
	SampleDate time.Time `json:"sample_date"`
	Accession  string    `json:"accession"`
	Property   string    `json:"property"`
	Summary
}

// Querier is the read side consumed by the presentation layer.
type Querier interface {
	GetCV(ctx context.Context, label string) (*CV, error)
	GetInstrument(ctx context.Context, name string, opts FetchOptions) (*Instrument, error)
	GetProperty(ctx context.Context, accession string) (*Property, error)
	GetRun(ctx context.Context, instrument, name string, opts FetchOptions) (*Run, error)
	GetEvent(ctx context.Context, instrument string, date time.Time) (*Event, error)

	// FetchInstruments returns every instrument ordered by name.
	FetchInstruments(ctx context.Context) ([]*Instrument, error)

	// FetchValues accepts "instrument", "accession" (string), "from", "to"
	// (time.Time) and "limit" (int).
	FetchValues(ctx context.Context, filter Filter) ([]ValuePoint, error)

	// FetchEvents accepts "instrument", "type" (string or EventType), "from"
	// and "to" (time.Time).
	FetchEvents(ctx context.Context, filter Filter) ([]*Event, error)
}

// Store is an attachable relational store exposing both sides.
type Store interface {
	Gateway
	Querier

	// Attach opens the store described by config. Returns
	// ErrAlreadyAttached when called twice.
	Attach(config Config) error

	// Detach releases resources. Idempotent.
	Detach() error
}
