package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Progress returns the user's progress. A user without a progress row gets
// zero progress, which is what the application assumes for fresh accounts.
func (s *Store) Progress(userID int64) (*Progress, error) {
	row := s.db.QueryRow(
		"SELECT points, completed_tutorials, completed_challenges, emoji_collection FROM user_progress WHERE user_id = ?",
		userID)

	var p Progress
	var tutorials, challenges, emoji string
	err := row.Scan(&p.Points, &tutorials, &challenges, &emoji)
	if err == sql.ErrNoRows {
		return &Progress{
			CompletedTutorials:  []string{},
			CompletedChallenges: []string{},
			EmojiCollection:     []string{},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tutorials), &p.CompletedTutorials); err != nil {
		return nil, fmt.Errorf("decode completed_tutorials: %w", err)
	}
	if err := json.Unmarshal([]byte(challenges), &p.CompletedChallenges); err != nil {
		return nil, fmt.Errorf("decode completed_challenges: %w", err)
	}
	if err := json.Unmarshal([]byte(emoji), &p.EmojiCollection); err != nil {
		return nil, fmt.Errorf("decode emoji_collection: %w", err)
	}
	return &p, nil
}

// UpdateProgress replaces the user's progress values and stamps
// last_updated. A missing progress row is created, so accounts predating
// the progress table can still be updated.
func (s *Store) UpdateProgress(userID int64, p *Progress) error {
	tutorials, err := encodeList(p.CompletedTutorials)
	if err != nil {
		return err
	}
	challenges, err := encodeList(p.CompletedChallenges)
	if err != nil {
		return err
	}
	emoji, err := encodeList(p.EmojiCollection)
	if err != nil {
		return err
	}

	trx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = trx.Rollback() }()

	res, err := trx.Exec(`UPDATE user_progress
		SET points = ?, completed_tutorials = ?, completed_challenges = ?, emoji_collection = ?, last_updated = datetime('now')
		WHERE user_id = ?`,
		p.Points, tutorials, challenges, emoji, userID)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := trx.Exec(`INSERT INTO user_progress (user_id, points, completed_tutorials, completed_challenges, emoji_collection)
			VALUES (?, ?, ?, ?, ?)`,
			userID, p.Points, tutorials, challenges, emoji); err != nil {
			return fmt.Errorf("insert progress: %w", err)
		}
	}
	return trx.Commit()
}

// encodeList marshals a list column, normalizing nil to the empty array the
// application's decoder expects.
func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
