package cli

import (
	"fmt"

	"github.com/mesh-intelligence/planbook/internal/schema"
	"github.com/mesh-intelligence/planbook/internal/sqlite"
)

// registry returns the section catalogue: sections_file when configured,
// else the embedded default.
func (a *app) registry() (*schema.Registry, error) {
	if a.cfg.SectionsFile != "" {
		return schema.LoadFile(a.cfg.SectionsFile)
	}
	return schema.Default()
}

// attachBackend opens the sqlite backend in the resolved data directory.
// The caller must Detach it.
func (a *app) attachBackend() (*sqlite.Backend, string, error) {
	dataDir, err := a.dataDir()
	if err != nil {
		return nil, "", sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	reg, err := a.registry()
	if err != nil {
		return nil, "", userError(fmt.Errorf("load sections: %w", err))
	}

	cfg := a.cfg
	cfg.DataDir = dataDir
	backend := sqlite.NewBackend(reg)
	if err := backend.Attach(cfg); err != nil {
		return nil, "", sysError(fmt.Errorf("attach storage: %w", err))
	}
	return backend, dataDir, nil
}
