// Package config resolves the well-known paths pad works with: the data
// directory, the two SQLite databases, and the deployment manifest.
package config

import (
	"os"
	"path/filepath"
)

// Environment overrides. Each one, when set, wins over the default location.
const (
	EnvPadHome      = "PAD_HOME"
	EnvPadAppDB     = "PAD_APP_DB"
	EnvPadHistoryDB = "PAD_HISTORY_DB"
	EnvPadManifest  = "PAD_MANIFEST"
)

// DefaultManifestName is the manifest file pad looks for in the working
// directory when no override is given.
const DefaultManifestName = "pad.yaml"

// DefaultAppDBName matches the database file the PythonKids application
// creates next to itself, so pad administers the same file the app reads.
const DefaultAppDBName = "kids_python_app.db"

// DataDir returns the directory used to store pad's own data.
func DataDir() (string, error) {
	if v := os.Getenv(EnvPadHome); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pad"), nil
}

// EnsureDataDir creates the data directory if needed and returns its path.
func EnsureDataDir() (string, error) {
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(d, 0o755); err != nil {
		return "", err
	}
	return d, nil
}

// HistoryDBPath returns the full path to pad's run-history database.
func HistoryDBPath() (string, error) {
	if v := os.Getenv(EnvPadHistoryDB); v != "" {
		return v, nil
	}
	d, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "pad.db"), nil
}

// AppDBPath returns the path to the hosted application's database. The
// default is the app's own file in the working directory, not the data dir.
func AppDBPath() (string, error) {
	if v := os.Getenv(EnvPadAppDB); v != "" {
		return v, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, DefaultAppDBName), nil
}

// ManifestPath returns the manifest location: the explicit argument when
// non-empty (the --manifest flag), then the environment, then ./pad.yaml.
func ManifestPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if v := os.Getenv(EnvPadManifest); v != "" {
		return v, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, DefaultManifestName), nil
}
