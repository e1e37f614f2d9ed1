package store

import "database/sql"

// Event types recorded in user_events. The application writes the same
// strings, so filters work across both writers.
const (
	EventUserCreated          = "user_created"
	EventLogin                = "login"
	EventPasswordReset        = "password_reset"
	EventCertificateCreated   = "certificate_created"
	EventCertificateCompleted = "certificate_completed"
)

// User is an account row.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Profile      Profile
	IsAdmin      bool
	CreatedAt    string
	LastLogin    sql.NullString
}

// Profile holds the enrollment details attached to an account. Columns the
// application left NULL come back as empty strings.
type Profile struct {
	FullName   string
	ParentName string
	DOB        string
	Class      string
	Section    string
	School     string
}

// Progress is a user's lesson progress. The three list fields are stored as
// JSON arrays in TEXT columns, which is the representation the application
// reads back.
type Progress struct {
	Points              int
	CompletedTutorials  []string
	CompletedChallenges []string
	EmojiCollection     []string
}

// Event is one recorded user activity.
type Event struct {
	Type      string
	Details   sql.NullString
	Timestamp string
}

// Certificate is an issued certificate, completed or not.
type Certificate struct {
	Type          string
	IssueDate     string
	Code          string
	CompletedDate sql.NullString
}

// Completed reports whether the certificate has a completion date.
func (c Certificate) Completed() bool {
	return c.CompletedDate.Valid
}

// Verification is the public lookup result for a certificate code. Valid is
// false when the code matches nothing; the remaining fields are then zero.
type Verification struct {
	Valid         bool
	Type          string
	IssueDate     string
	CompletedDate sql.NullString
	Username      string
	Profile       Profile
	UserID        int64
}

// Completed reports whether the verified certificate was completed.
func (v Verification) Completed() bool {
	return v.CompletedDate.Valid
}
