// Package identity persists who is driving pad on this machine. The saved
// name seeds the author field of scaffolded workflows and is shown by
// pad whoami.
package identity

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pythonkids/pad/internal/config"
)

// Author is the persisted identity.
type Author struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func authorPath() (string, error) {
	d, err := config.EnsureDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "whoami.json"), nil
}

// Set saves the author to disk.
func Set(a Author) error {
	path, err := authorPath()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

// Get reads the saved author. The second return is false when none was set.
func Get() (Author, bool, error) {
	path, err := authorPath()
	if err != nil {
		return Author{}, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Author{}, false, nil
		}
		return Author{}, false, err
	}
	var a Author
	if err := json.Unmarshal(b, &a); err != nil {
		return Author{}, false, err
	}
	return a, true, nil
}

// Clear removes the saved author. Clearing an unset identity is not an
// error.
func Clear() error {
	path, err := authorPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
