// Package sqlite provides the public factory for the SQLite qcwatch store
// while keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/qcwatch/internal/sqlite"
	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

// NewBackend creates a new SQLite store.
// The store is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{DataDir: "/var/lib/qcwatch"})
//	defer store.Detach()
func NewBackend() types.Store {
	return sqlite.NewBackend()
}

// Open creates a store and attaches it to config.
func Open(config types.Config) (types.Store, error) {
	store := sqlite.NewBackend()
	if err := store.Attach(config); err != nil {
		return nil, err
	}
	return store, nil
}
