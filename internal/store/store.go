// Package store is the data layer for the application database: user
// accounts, lesson progress, activity events, and certificates live in one
// SQLite file shared with the Streamlit application. The schema and row
// semantics are dictated by what the application expects to find.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/pythonkids/pad/internal/db"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps the application database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the application database at path, creating it and its parent
// directory when missing, and brings old databases up to the current schema.
func Open(path string) (*Store, error) {
	conn, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open app database: %w", err)
	}
	if err := db.EnsureSchema(conn, schemaSQL); err != nil {
		_ = conn.Close()
		return nil, err
	}
	s := &Store{db: conn, path: path}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate app database: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file the store was opened on.
func (s *Store) Path() string {
	return s.path
}

// migrate adapts databases created by older application versions. New
// databases already match the embedded schema, so both steps are no-ops for
// them.
func (s *Store) migrate() error {
	ok, err := db.HasColumn(s.db, "users", "is_admin")
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.db.Exec("ALTER TABLE users ADD COLUMN is_admin INTEGER DEFAULT 0"); err != nil {
			return fmt.Errorf("add is_admin column: %w", err)
		}
	}

	// The application assumes at least one admin exists once there are any
	// users at all; promote the earliest account when none does.
	var admins int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE is_admin = 1").Scan(&admins); err != nil {
		return err
	}
	if admins == 0 {
		var id int64
		err := s.db.QueryRow("SELECT id FROM users ORDER BY id LIMIT 1").Scan(&id)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := s.db.Exec("UPDATE users SET is_admin = 1 WHERE id = ?", id); err != nil {
			return fmt.Errorf("promote first admin: %w", err)
		}
	}
	return nil
}

// execer lets helpers run statements on either the database or an open
// transaction.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}
