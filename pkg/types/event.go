package types

import (
	"fmt"
	"strings"
	"time"
)

// EventType classifies a manually entered or polled instrument event.
type EventType string

// Event types.
const (
	EventUndefined   EventType = "undefined"
	EventCalibration EventType = "calibration"
	EventMaintenance EventType = "maintenance"
	EventIncident    EventType = "incident"
	EventTemperature EventType = "temperature"
	EventMotion      EventType = "motion"
)

var validEventTypes = map[EventType]bool{
	EventUndefined:   true,
	EventCalibration: true,
	EventMaintenance: true,
	EventIncident:    true,
	EventTemperature: true,
	EventMotion:      true,
}

// ParseEventType returns the EventType named by s (case-insensitive).
// Returns ErrInvalidEventType for unknown names.
func ParseEventType(s string) (EventType, error) {
	et := EventType(strings.ToLower(strings.TrimSpace(s)))
	if et == "" {
		return EventUndefined, nil
	}
	if !validEventTypes[et] {
		return "", fmt.Errorf("%w: %q", ErrInvalidEventType, s)
	}
	return et, nil
}

// Event is something that happened to an instrument at a point in time.
// The natural key is the date together with the owning instrument name.
// Writing an event with an existing key updates it in place.
type Event struct {
	EventID        string    `json:"event_id"`
	InstrumentName string    `json:"instrument_name"`
	InstrumentID   string    `json:"instrument_id"`
	Date           time.Time `json:"date"`
	Type           EventType `json:"type"`
	Problem        string    `json:"problem"`
	Solution       string    `json:"solution"`
	Extra          string    `json:"extra"`
	AttachmentName string    `json:"attachment_name,omitempty"`
	Attachment     []byte    `json:"attachment,omitempty"`
}

// Key returns the natural key of the event.
func (e *Event) Key() NaturalKey {
	return EventKey(e.InstrumentName, e.Date)
}
