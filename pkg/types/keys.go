package types

import (
	"fmt"
	"time"
)

// Kind names an entity kind that has a natural key.
type Kind string

// Entity kinds.
const (
	KindCV         Kind = "cv"
	KindInstrument Kind = "instrument"
	KindProperty   Kind = "property"
	KindRun        Kind = "run"
	KindEvent      Kind = "event"
)

// NaturalKey is the user-meaningful identifier of an entity. Owner is the
// instrument name for runs and events and empty otherwise. Date is set only
// for events.
type NaturalKey struct {
	Kind  Kind
	Name  string
	Owner string
	Date  time.Time
}

// CVKey returns the natural key of a CV.
func CVKey(label string) NaturalKey {
	return NaturalKey{Kind: KindCV, Name: label}
}

// InstrumentKey returns the natural key of an instrument.
func InstrumentKey(name string) NaturalKey {
	return NaturalKey{Kind: KindInstrument, Name: name}
}

// PropertyKey returns the natural key of a property.
func PropertyKey(accession string) NaturalKey {
	return NaturalKey{Kind: KindProperty, Name: accession}
}

// RunKey returns the natural key of a run.
func RunKey(instrument, name string) NaturalKey {
	return NaturalKey{Kind: KindRun, Name: name, Owner: instrument}
}

// EventKey returns the natural key of an event.
func EventKey(instrument string, date time.Time) NaturalKey {
	return NaturalKey{Kind: KindEvent, Owner: instrument, Date: date}
}

func (k NaturalKey) String() string {
	switch k.Kind {
	case KindRun:
		return fmt.Sprintf("%s %s/%s", k.Kind, k.Owner, k.Name)
	case KindEvent:
		return fmt.Sprintf("%s %s@%s", k.Kind, k.Owner, k.Date.UTC().Format(time.RFC3339))
	default:
		return fmt.Sprintf("%s %s", k.Kind, k.Name)
	}
}
