package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// legacyUser is one entry in the users.json file the application kept
// before it had a database. The password field already holds a hash.
type legacyUser struct {
	Password string `json:"password"`
}

// legacyProgress mirrors the per-user progress_<username>.json files.
type legacyProgress struct {
	Points              int      `json:"points"`
	CompletedTutorials  []string `json:"completed_tutorials"`
	CompletedChallenges []string `json:"completed_challenges"`
	EmojiCollection     []string `json:"emoji_collection"`
}

// ImportLegacyJSON migrates accounts from the flat-file era: users.json in
// dir, plus an optional progress_<username>.json per user. It only runs
// against an empty database and returns the number of accounts imported.
func (s *Store) ImportLegacyJSON(dir string) (int, error) {
	n, err := s.CountUsers()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, fmt.Errorf("database already has %d users; legacy import only runs on an empty database", n)
	}

	data, err := os.ReadFile(filepath.Join(dir, "users.json"))
	if err != nil {
		return 0, fmt.Errorf("read users.json: %w", err)
	}
	var users map[string]legacyUser
	if err := json.Unmarshal(data, &users); err != nil {
		return 0, fmt.Errorf("parse users.json: %w", err)
	}

	names := make([]string, 0, len(users))
	for name := range users {
		names = append(names, name)
	}
	sort.Strings(names)

	imported := 0
	for _, name := range names {
		id, err := s.AddUser(name, users[name].Password, nil, false)
		if err != nil {
			return imported, fmt.Errorf("import user %q: %w", name, err)
		}
		if err := s.importLegacyProgress(dir, name, id); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func (s *Store) importLegacyProgress(dir, username string, userID int64) error {
	path := filepath.Join(dir, "progress_"+username+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var lp legacyProgress
	if err := json.Unmarshal(data, &lp); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return s.UpdateProgress(userID, &Progress{
		Points:              lp.Points,
		CompletedTutorials:  lp.CompletedTutorials,
		CompletedChallenges: lp.CompletedChallenges,
		EmojiCollection:     lp.EmojiCollection,
	})
}
