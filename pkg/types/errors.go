package types

import (
	"errors"
	"fmt"
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Lookup and write errors.
var (
	ErrNotFound           = errors.New("entity not found")
	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrConflict           = errors.New("natural key conflict")
	ErrInvalidData        = errors.New("invalid entity data")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidKind        = errors.New("invalid entity kind")
	ErrInvalidValueType   = errors.New("invalid value type")
	ErrInvalidEventType   = errors.New("invalid event type")
	ErrInvalidFilter      = errors.New("invalid filter value type")
)

// ConflictError reports a write rejected because an entity with the same
// natural key already exists. It matches ErrConflict with errors.Is.
type ConflictError struct {
	Key NaturalKey
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Key)
}

// Unwrap lets errors.Is(err, ErrConflict) succeed.
func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NewConflict returns a ConflictError for key.
func NewConflict(key NaturalKey) error {
	return &ConflictError{Key: key}
}
