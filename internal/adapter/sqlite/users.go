package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neomorfeo/dancepair/internal/domain"
)

var _ domain.UserDirectory = (*UserDirectory)(nil)

// UserDirectory implements domain.UserDirectory using SQLite. Save is used
// by the admin surface to seed profiles; the pairing core only reads.
type UserDirectory struct {
	db *sql.DB
}

const userColumns = `id, name, surname, email, phone, role`

// Save inserts or replaces a user profile. Emails are compared
// case-insensitively.
func (d *UserDirectory) Save(ctx context.Context, u domain.UserProfile) error {
	now := formatTime(time.Now())
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO users (id, name, surname, email, phone, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name, surname = excluded.surname, email = excluded.email,
		   phone = excluded.phone, role = excluded.role, updated_at = excluded.updated_at`,
		u.ID, u.Name, u.Surname, normalizeEmail(u.Email), u.Phone, string(u.Role), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.EmailConflictError{Email: u.Email}
		}
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

func (d *UserDirectory) GetByID(ctx context.Context, id string) (domain.UserProfile, error) {
	return scanUser(d.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
}

func (d *UserDirectory) GetByEmail(ctx context.Context, email string) (domain.UserProfile, error) {
	return scanUser(d.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email),
	))
}

func scanUser(row scanner) (domain.UserProfile, error) {
	var u domain.UserProfile
	var role string

	err := row.Scan(&u.ID, &u.Name, &u.Surname, &u.Email, &u.Phone, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UserProfile{}, domain.ErrUserNotFound
		}
		return domain.UserProfile{}, fmt.Errorf("scanning user: %w", err)
	}

	u.Role = domain.Role(role)
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
