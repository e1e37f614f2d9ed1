package store

import (
	"database/sql"
	"fmt"
)

// DefaultEventLimit caps RecentEvents when the caller passes no limit.
const DefaultEventLimit = 50

func logEvent(e execer, userID int64, eventType, details string) error {
	d := sql.NullString{String: details, Valid: details != ""}
	if _, err := e.Exec("INSERT INTO user_events (user_id, event_type, event_details) VALUES (?, ?, ?)",
		userID, eventType, d); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// LogEvent records an activity event for a user.
func (s *Store) LogEvent(userID int64, eventType, details string) error {
	if eventType == "" {
		return fmt.Errorf("empty event type")
	}
	return logEvent(s.db, userID, eventType, details)
}

// RecentEvents returns the user's newest events, most recent first. A limit
// of zero or less means DefaultEventLimit.
func (s *Store) RecentEvents(userID int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	rows, err := s.db.Query(`SELECT event_type, event_details, timestamp
		FROM user_events
		WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.Type, &ev.Details, &ev.Timestamp); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
