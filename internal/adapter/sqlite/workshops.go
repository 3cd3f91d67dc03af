package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/dancepair/internal/domain"
)

var _ domain.WorkshopRepository = (*WorkshopRepository)(nil)

// WorkshopRepository implements domain.WorkshopRepository using SQLite.
type WorkshopRepository struct {
	db *sql.DB
}

const workshopColumns = `id, name, modality, instructors, date, start_time, location, created_at, updated_at`

func (r *WorkshopRepository) Create(ctx context.Context, w domain.Workshop) error {
	instructors, err := encodeInstructors(w.Instructors)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO workshops (`+workshopColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Name, w.Modality, instructors,
		w.Date.Format(domain.DateLayout), w.StartTime, w.Location,
		formatTime(w.CreatedAt), formatTime(w.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting workshop: %w", err)
	}
	return nil
}

func (r *WorkshopRepository) GetByID(ctx context.Context, id string) (domain.Workshop, error) {
	w, err := scanWorkshop(r.db.QueryRowContext(ctx,
		`SELECT `+workshopColumns+` FROM workshops WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Workshop{}, domain.ErrWorkshopNotFound
	}
	return w, err
}

// List returns workshops by date, soonest first.
func (r *WorkshopRepository) List(ctx context.Context, filter domain.WorkshopFilter) ([]domain.Workshop, error) {
	query := `SELECT ` + workshopColumns + ` FROM workshops ORDER BY date, start_time, id`
	var args []any

	// SQLite only accepts OFFSET after LIMIT; -1 means unbounded.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, max(filter.Offset, 0))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing workshops: %w", err)
	}
	defer rows.Close()

	var workshops []domain.Workshop
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, err
		}
		workshops = append(workshops, w)
	}

	return workshops, rows.Err()
}

func (r *WorkshopRepository) Update(ctx context.Context, w domain.Workshop) error {
	instructors, err := encodeInstructors(w.Instructors)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE workshops SET name = ?, modality = ?, instructors = ?, date = ?,
		   start_time = ?, location = ?, updated_at = ?
		 WHERE id = ?`,
		w.Name, w.Modality, instructors, w.Date.Format(domain.DateLayout),
		w.StartTime, w.Location, formatTime(time.Now()), w.ID,
	)
	if err != nil {
		return fmt.Errorf("updating workshop: %w", err)
	}
	return checkAffected(result, domain.ErrWorkshopNotFound)
}

func scanWorkshop(row scanner) (domain.Workshop, error) {
	var w domain.Workshop
	var instructors, date, createdAt, updatedAt string

	err := row.Scan(&w.ID, &w.Name, &w.Modality, &instructors, &date,
		&w.StartTime, &w.Location, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Workshop{}, err
		}
		return domain.Workshop{}, fmt.Errorf("scanning workshop: %w", err)
	}

	if err := json.Unmarshal([]byte(instructors), &w.Instructors); err != nil {
		return domain.Workshop{}, fmt.Errorf("decoding instructors of workshop %s: %w", w.ID, err)
	}
	w.Date, err = time.Parse(domain.DateLayout, date)
	if err != nil {
		return domain.Workshop{}, fmt.Errorf("parsing date of workshop %s: %w", w.ID, err)
	}
	w.CreatedAt = parseTime(createdAt)
	w.UpdatedAt = parseTime(updatedAt)

	return w, nil
}

func encodeInstructors(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	b, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("encoding instructors: %w", err)
	}
	return string(b), nil
}
