package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pythonkids/pad/internal/nameutil"
)

// ErrUsernameTaken is returned by AddUser when the username exists already.
var ErrUsernameTaken = errors.New("username already taken")

// ErrUserNotFound is returned by updates that matched no user row.
var ErrUserNotFound = errors.New("user not found")

// ErrInvalidCredentials covers both unknown usernames and wrong passwords,
// so callers cannot probe which accounts exist.
var ErrInvalidCredentials = errors.New("invalid username or password")

const userColumns = "id, username, password_hash, full_name, parent_name, dob, class, section, school, is_admin, created_at, last_login"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var fullName, parentName, dob, class, section, school sql.NullString
	var isAdmin int
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash,
		&fullName, &parentName, &dob, &class, &section, &school,
		&isAdmin, &u.CreatedAt, &u.LastLogin)
	if err != nil {
		return nil, err
	}
	u.Profile = Profile{
		FullName:   fullName.String,
		ParentName: parentName.String,
		DOB:        dob.String,
		Class:      class.String,
		Section:    section.String,
		School:     school.String,
	}
	u.IsAdmin = isAdmin != 0
	return &u, nil
}

// AddUser creates an account together with its empty progress row and a
// user_created event, in one transaction. passwordHash must already be a
// hash; see HashPassword. Returns the new user's id.
func (s *Store) AddUser(username, passwordHash string, profile *Profile, isAdmin bool) (int64, error) {
	username = strings.TrimSpace(username)
	if err := nameutil.ValidateUsername(username); err != nil {
		return 0, err
	}
	if passwordHash == "" {
		return 0, errors.New("empty password hash")
	}

	trx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = trx.Rollback() }()

	// The NOT EXISTS guard makes the uniqueness check and the insert one
	// statement inside the engine, instead of a racy check-then-insert.
	var res sql.Result
	if profile != nil {
		res, err = trx.Exec(`INSERT INTO users (username, password_hash, full_name, parent_name, dob, class, section, school, is_admin)
			SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?
			WHERE NOT EXISTS(SELECT 1 FROM users WHERE username = ?)`,
			username, passwordHash,
			profile.FullName, profile.ParentName, profile.DOB, profile.Class, profile.Section, profile.School,
			boolToInt(isAdmin), username)
	} else {
		res, err = trx.Exec(`INSERT INTO users (username, password_hash, is_admin)
			SELECT ?, ?, ?
			WHERE NOT EXISTS(SELECT 1 FROM users WHERE username = ?)`,
			username, passwordHash, boolToInt(isAdmin), username)
	}
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, fmt.Errorf("%w: %q", ErrUsernameTaken, username)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err := trx.Exec("INSERT INTO user_progress (user_id) VALUES (?)", id); err != nil {
		return 0, fmt.Errorf("insert progress row: %w", err)
	}
	if err := logEvent(trx, id, EventUserCreated, "User account created for "+username); err != nil {
		return 0, err
	}
	if err := trx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetUser returns the account with the given username, or nil when there is
// none.
func (s *Store) GetUser(username string) (*User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE username = ?", username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByID returns the account with the given id, or nil when there is
// none.
func (s *Store) GetUserByID(id int64) (*User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers returns every account, newest first.
func (s *Store) ListUsers() ([]User, error) {
	rows, err := s.db.Query("SELECT " + userColumns + " FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CountUsers returns the number of accounts.
func (s *Store) CountUsers() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateLastLogin stamps the user's last_login with the current time.
func (s *Store) UpdateLastLogin(id int64) error {
	return s.updateUser(id, "UPDATE users SET last_login = datetime('now') WHERE id = ?")
}

// UpdateProfile replaces the user's profile fields.
func (s *Store) UpdateProfile(id int64, p Profile) error {
	res, err := s.db.Exec(`UPDATE users
		SET full_name = ?, parent_name = ?, dob = ?, class = ?, section = ?, school = ?
		WHERE id = ?`,
		p.FullName, p.ParentName, p.DOB, p.Class, p.Section, p.School, id)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireUserRow(res, id)
}

// SetAdmin grants or revokes admin status.
func (s *Store) SetAdmin(id int64, isAdmin bool) error {
	res, err := s.db.Exec("UPDATE users SET is_admin = ? WHERE id = ?", boolToInt(isAdmin), id)
	if err != nil {
		return fmt.Errorf("set admin status: %w", err)
	}
	return requireUserRow(res, id)
}

// ResetPassword replaces the user's password hash and records a
// password_reset event.
func (s *Store) ResetPassword(id int64, newHash string) error {
	if newHash == "" {
		return errors.New("empty password hash")
	}
	trx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = trx.Rollback() }()

	res, err := trx.Exec("UPDATE users SET password_hash = ? WHERE id = ?", newHash, id)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if err := requireUserRow(res, id); err != nil {
		return err
	}
	if err := logEvent(trx, id, EventPasswordReset, "Password was reset by administrator"); err != nil {
		return err
	}
	return trx.Commit()
}

// Authenticate verifies username and password against the stored hash. On
// success it stamps last_login, records a login event, and returns the
// account.
func (s *Store) Authenticate(username, password string) (*User, error) {
	u, err := s.GetUser(username)
	if err != nil {
		return nil, err
	}
	if u == nil || !CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if err := s.UpdateLastLogin(u.ID); err != nil {
		return nil, err
	}
	if err := logEvent(s.db, u.ID, EventLogin, "Signed in as "+username); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) updateUser(id int64, query string) error {
	res, err := s.db.Exec(query, id)
	if err != nil {
		return err
	}
	return requireUserRow(res, id)
}

func requireUserRow(res sql.Result, id int64) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
