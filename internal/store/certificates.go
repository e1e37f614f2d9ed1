package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrCertificateNotFound is returned when a certificate code matches no row
// and the caller asked to change it.
var ErrCertificateNotFound = errors.New("certificate not found")

// IssueCertificate creates a certificate of the given type for the user and
// returns its code. Codes are UUIDs, which is what the application prints
// on the certificate page and accepts for verification.
func (s *Store) IssueCertificate(userID int64, certType string) (string, error) {
	certType = strings.TrimSpace(certType)
	if certType == "" {
		return "", errors.New("empty certificate type")
	}
	code := uuid.NewString()

	trx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer func() { _ = trx.Rollback() }()

	if _, err := trx.Exec(
		"INSERT INTO certificates (user_id, certificate_type, certificate_code) VALUES (?, ?, ?)",
		userID, certType, code); err != nil {
		return "", fmt.Errorf("insert certificate: %w", err)
	}
	details := fmt.Sprintf("Certificate of type '%s' created with code %s", certType, code)
	if err := logEvent(trx, userID, EventCertificateCreated, details); err != nil {
		return "", err
	}
	if err := trx.Commit(); err != nil {
		return "", err
	}
	return code, nil
}

// CompleteCertificate stamps the certificate as completed now and records
// the completion event. Completing an already completed certificate renews
// its completion date.
func (s *Store) CompleteCertificate(code string) error {
	trx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = trx.Rollback() }()

	var userID int64
	var certType string
	err = trx.QueryRow(
		"SELECT user_id, certificate_type FROM certificates WHERE certificate_code = ?", code).
		Scan(&userID, &certType)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: code %q", ErrCertificateNotFound, code)
	}
	if err != nil {
		return err
	}

	if _, err := trx.Exec(
		"UPDATE certificates SET completed_date = datetime('now') WHERE certificate_code = ?", code); err != nil {
		return fmt.Errorf("complete certificate: %w", err)
	}
	details := fmt.Sprintf("Certificate of type '%s' with code %s completed", certType, code)
	if err := logEvent(trx, userID, EventCertificateCompleted, details); err != nil {
		return err
	}
	return trx.Commit()
}

// Certificates lists the user's certificates, newest first.
func (s *Store) Certificates(userID int64) ([]Certificate, error) {
	rows, err := s.db.Query(`SELECT certificate_type, issue_date, certificate_code, completed_date
		FROM certificates
		WHERE user_id = ?
		ORDER BY issue_date DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var certs []Certificate
	for rows.Next() {
		var c Certificate
		if err := rows.Scan(&c.Type, &c.IssueDate, &c.Code, &c.CompletedDate); err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}

// VerifyCertificate looks up a certificate code on behalf of anyone holding
// it. An unknown code is a negative verification, not an error.
func (s *Store) VerifyCertificate(code string) (*Verification, error) {
	row := s.db.QueryRow(`SELECT c.certificate_type, c.issue_date, c.completed_date, u.username,
			u.full_name, u.parent_name, u.dob, u.class, u.section, u.school, u.id
		FROM certificates c
		JOIN users u ON c.user_id = u.id
		WHERE c.certificate_code = ?`, code)

	var v Verification
	var fullName, parentName, dob, class, section, school sql.NullString
	err := row.Scan(&v.Type, &v.IssueDate, &v.CompletedDate, &v.Username,
		&fullName, &parentName, &dob, &class, &section, &school, &v.UserID)
	if err == sql.ErrNoRows {
		return &Verification{Valid: false}, nil
	}
	if err != nil {
		return nil, err
	}
	v.Valid = true
	v.Profile = Profile{
		FullName:   fullName.String,
		ParentName: parentName.String,
		DOB:        dob.String,
		Class:      class.String,
		Section:    section.String,
		School:     school.String,
	}
	return &v, nil
}
