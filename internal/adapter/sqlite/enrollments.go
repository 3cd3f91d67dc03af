package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/dancepair/internal/domain"
)

var (
	_ domain.EnrollmentStore = (*EnrollmentStore)(nil)
	_ domain.EnrollmentTx    = enrollments{}
)

// EnrollmentStore implements domain.EnrollmentStore using SQLite.
type EnrollmentStore struct {
	db *sql.DB
}

// WithinWorkshop runs fn in a database transaction. With the store's single
// connection no other transaction can start until this one ends, so the
// waitlist scan and the pairing writes inside fn cannot interleave with
// another pairing operation. fn must only use the given tx.
func (s *EnrollmentStore) WithinWorkshop(ctx context.Context, workshopID string, fn func(tx domain.EnrollmentTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction for workshop %s: %w", workshopID, err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(enrollments{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction for workshop %s: %w", workshopID, err)
	}
	return nil
}

func (s *EnrollmentStore) GetByWorkshopAndUser(ctx context.Context, workshopID, userID string) (domain.Enrollment, error) {
	return enrollments{q: s.db}.GetByWorkshopAndUser(ctx, workshopID, userID)
}

func (s *EnrollmentStore) ListByWorkshop(ctx context.Context, workshopID string) ([]domain.Enrollment, error) {
	return enrollments{q: s.db}.ListByWorkshop(ctx, workshopID)
}

func (s *EnrollmentStore) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	return enrollments{q: s.db}.list(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE user_id = ? ORDER BY seq`, userID)
}

const enrollmentColumns = `seq, id, workshop_id, user_id, role, status, partner_id, created_at, updated_at`

// enrollments runs enrollment queries against a connection or transaction.
type enrollments struct {
	q querier
}

func (e enrollments) Create(ctx context.Context, en domain.Enrollment) (domain.Enrollment, error) {
	result, err := e.q.ExecContext(ctx,
		`INSERT INTO enrollments (id, workshop_id, user_id, role, status, partner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		en.ID, en.WorkshopID, en.UserID, string(en.Role), string(en.Status), en.PartnerID,
		formatTime(en.CreatedAt), formatTime(en.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Enrollment{}, &domain.AlreadyEnrolledError{UserID: en.UserID, WorkshopID: en.WorkshopID}
		}
		if isForeignKeyViolation(err) {
			return domain.Enrollment{}, e.missingParent(ctx, en)
		}
		return domain.Enrollment{}, fmt.Errorf("inserting enrollment: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return domain.Enrollment{}, fmt.Errorf("reading enrollment sequence: %w", err)
	}
	en.Seq = seq
	return en, nil
}

// missingParent names which referenced row an insert of en failed on.
func (e enrollments) missingParent(ctx context.Context, en domain.Enrollment) error {
	var found int
	err := e.q.QueryRowContext(ctx, `SELECT 1 FROM workshops WHERE id = ?`, en.WorkshopID).Scan(&found)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrWorkshopNotFound
	case err != nil:
		return fmt.Errorf("checking workshop %s: %w", en.WorkshopID, err)
	}
	return domain.ErrUserNotFound
}

// DeleteWorkshop removes the workshop; ON DELETE CASCADE takes its
// enrollments with it.
func (e enrollments) DeleteWorkshop(ctx context.Context, workshopID string) error {
	result, err := e.q.ExecContext(ctx, `DELETE FROM workshops WHERE id = ?`, workshopID)
	if err != nil {
		return fmt.Errorf("deleting workshop: %w", err)
	}
	return checkAffected(result, domain.ErrWorkshopNotFound)
}

func (e enrollments) Save(ctx context.Context, en domain.Enrollment) error {
	result, err := e.q.ExecContext(ctx,
		`UPDATE enrollments SET status = ?, partner_id = ?, updated_at = ? WHERE id = ?`,
		string(en.Status), en.PartnerID, formatTime(en.UpdatedAt), en.ID,
	)
	if err != nil {
		return fmt.Errorf("updating enrollment: %w", err)
	}
	return checkAffected(result, domain.ErrEnrollmentNotFound)
}

func (e enrollments) Delete(ctx context.Context, id string) error {
	result, err := e.q.ExecContext(ctx, `DELETE FROM enrollments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting enrollment: %w", err)
	}
	return checkAffected(result, domain.ErrEnrollmentNotFound)
}

func (e enrollments) GetByID(ctx context.Context, id string) (domain.Enrollment, error) {
	return scanEnrollment(e.q.QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE id = ?`, id,
	))
}

func (e enrollments) GetByWorkshopAndUser(ctx context.Context, workshopID, userID string) (domain.Enrollment, error) {
	return scanEnrollment(e.q.QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE workshop_id = ? AND user_id = ?`,
		workshopID, userID,
	))
}

// ListByWorkshop returns the workshop's enrollments in waitlist order.
func (e enrollments) ListByWorkshop(ctx context.Context, workshopID string) ([]domain.Enrollment, error) {
	return e.list(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE workshop_id = ? ORDER BY seq`, workshopID)
}

func (e enrollments) list(ctx context.Context, query string, args ...any) ([]domain.Enrollment, error) {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments: %w", err)
	}
	defer rows.Close()

	var out []domain.Enrollment
	for rows.Next() {
		en, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, en)
	}

	return out, rows.Err()
}

func scanEnrollment(row scanner) (domain.Enrollment, error) {
	var en domain.Enrollment
	var role, status, createdAt, updatedAt string

	err := row.Scan(&en.Seq, &en.ID, &en.WorkshopID, &en.UserID, &role, &status,
		&en.PartnerID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Enrollment{}, domain.ErrEnrollmentNotFound
		}
		return domain.Enrollment{}, fmt.Errorf("scanning enrollment: %w", err)
	}

	en.Role = domain.Role(role)
	en.Status = domain.Status(status)
	en.CreatedAt = parseTime(createdAt)
	en.UpdatedAt = parseTime(updatedAt)

	return en, nil
}
