package types

import (
	"crypto/md5"
	"encoding/hex"
)

// ValueType tags the helper stream a property was read from.
type ValueType string

// Property value types.
const (
	ValueTypeStatusLog  ValueType = "statuslog"
	ValueTypeTuneMethod ValueType = "tunemethod"
)

// validValueTypes is the set of recognized property value types.
var validValueTypes = map[ValueType]bool{
	ValueTypeStatusLog:  true,
	ValueTypeTuneMethod: true,
}

// IsValidValueType reports whether vt is a recognized value type.
func IsValidValueType(vt ValueType) bool {
	return validValueTypes[vt]
}

// Property defines one telemetry channel. Accession is the natural key and
// is shared across instruments and runs: the same channel observed anywhere
// maps to the same Property row.
type Property struct {
	PropertyID string    `json:"property_id"`
	Accession  string    `json:"accession"`
	Name       string    `json:"name"`
	ValueType  ValueType `json:"value_type"`
	IsNumeric  bool      `json:"is_numeric"`
	CVID       string    `json:"cv_id"`
	CV         CV        `json:"cv"`
}

// Key returns the natural key of the property.
func (p *Property) Key() NaturalKey {
	return PropertyKey(p.Accession)
}

// PropertyName joins a section header and a channel name into the display
// name of a property. An empty header yields the bare channel name.
func PropertyName(header, channel string) string {
	if header == "" {
		return channel
	}
	return header + " - " + channel
}

// Accession derives the natural key of a property from its value type and
// name.
func Accession(vt ValueType, name string) string {
	sum := md5.Sum([]byte(string(vt) + ":" + name))
	return hex.EncodeToString(sum[:])
}

// NewProperty builds a property for the given channel with its accession
// filled in.
func NewProperty(vt ValueType, header, channel string, cv CV) Property {
	name := PropertyName(header, channel)
	return Property{
		Accession: Accession(vt, name),
		Name:      name,
		ValueType: vt,
		CV:        cv,
	}
}
