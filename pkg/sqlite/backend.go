// Package sqlite exposes the factory for the SQLite planbook backend while
// keeping its implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/planbook/internal/schema"
	"github.com/mesh-intelligence/planbook/internal/sqlite"
)

// Backend is the SQLite store of projects, section rows, single entries,
// users and sessions.
type Backend = sqlite.Backend

// NewBackend creates a SQLite backend over the section catalogue reg. A nil
// reg selects the embedded default catalogue. The backend is not attached;
// call Attach with a Config to open the database.
//
// Example:
//
//	backend, err := sqlite.NewBackend(nil)
//	if err != nil { ... }
//	err = backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".planbook-db",
//	})
//	defer backend.Detach()
func NewBackend(reg *schema.Registry) (*Backend, error) {
	if reg == nil {
		var err error
		if reg, err = schema.Default(); err != nil {
			return nil, err
		}
	}
	return sqlite.NewBackend(reg), nil
}
