package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyName(t *testing.T) {
	assert.Equal(t, "RF Amplifier - Temp", PropertyName("RF Amplifier", "Temp"))
	assert.Equal(t, "Temp", PropertyName("", "Temp"))
}

func TestAccession(t *testing.T) {
	a := Accession(ValueTypeStatusLog, "RF Amplifier - Temp")
	b := Accession(ValueTypeStatusLog, "RF Amplifier - Temp")
	c := Accession(ValueTypeTuneMethod, "RF Amplifier - Temp")

	assert.Equal(t, a, b, "accession must be deterministic")
	assert.NotEqual(t, a, c, "value type is part of the accession")
	assert.Len(t, a, 32)

	p := NewProperty(ValueTypeStatusLog, "RF Amplifier", "Temp", CV{Label: "MS"})
	assert.Equal(t, a, p.Accession)
	assert.Equal(t, "RF Amplifier - Temp", p.Name)
	assert.Equal(t, "MS", p.CV.Label)
	assert.Equal(t, PropertyKey(a), p.Key())
}

func TestParseEventType(t *testing.T) {
	et, err := ParseEventType("Maintenance")
	require.NoError(t, err)
	assert.Equal(t, EventMaintenance, et)

	et, err = ParseEventType("")
	require.NoError(t, err)
	assert.Equal(t, EventUndefined, et)

	_, err = ParseEventType("explosion")
	assert.ErrorIs(t, err, ErrInvalidEventType)
}

func TestConflictError(t *testing.T) {
	date := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	err := NewConflict(EventKey("orbi", date))

	assert.True(t, errors.Is(err, ErrConflict))
	var ce *ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, KindEvent, ce.Key.Kind)
	assert.Equal(t, "event orbi@2024-03-01T08:00:00Z already exists", err.Error())
	assert.Equal(t, "run orbi/r1", RunKey("orbi", "r1").String())
}
