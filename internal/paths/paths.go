// Package paths resolves where planbook keeps its configuration (config.yaml,
// session.json) and its data (the sqlite database).
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "planbook"

// DataDirName is the CWD-relative data directory used when nothing else is set.
const DataDirName = ".planbook-db"

// Environment overrides.
const (
	EnvConfigDir = "PLANBOOK_CONFIG_DIR"
	EnvDataDir   = "PLANBOOK_DATA_DIR"
)

// platformDir is swapped out in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the per-user configuration directory.
//
//	Linux:   $XDG_CONFIG_HOME/planbook, else ~/.config/planbook
//	macOS:   ~/Library/Application Support/planbook
//	Windows: %APPDATA%/planbook
func DefaultConfigDir() (string, error) {
	if platformDir.goos == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// ResolveConfigDir picks the configuration directory: flag, then
// PLANBOOK_CONFIG_DIR, then DefaultConfigDir. Explicit values are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if dir := firstSet(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the data directory: flag, then the data_dir value
// from config.yaml, then PLANBOOK_DATA_DIR, then $(CWD)/.planbook-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir := firstSet(flag, configValue, os.Getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DataDirName), nil
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
