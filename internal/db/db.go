// Package db opens pad's SQLite databases. The schemas themselves belong to
// the packages that own the data (store for the application database,
// history for pad's run records); this package only knows how to get a
// usable handle.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open ensures the parent directory exists and opens the SQLite database at
// path. The _pragma DSN parameter switches foreign key enforcement on for
// every pooled connection, not just the first one.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// EnsureSchema applies schemaSQL to the database. Schemas are written with
// CREATE TABLE IF NOT EXISTS so applying them repeatedly is harmless.
func EnsureSchema(conn *sql.DB, schemaSQL string) error {
	if _, err := conn.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// HasColumn reports whether the named table has the named column, using
// PRAGMA table_info. Used by migrations that add columns to databases
// created by older versions of the application.
func HasColumn(conn *sql.DB, table, column string) (bool, error) {
	rows, err := conn.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var cid int
		var name string
		var ctype string
		var notnull int
		var dflt interface{}
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
