package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-shift-api/internal/models"
)

const intensivePeriodColumns = `id, name, start_date, end_date, extended, created_at`

// IntensiveRepository persists intensive periods, enrolments and availability requests.
type IntensiveRepository struct {
	db *sqlx.DB
}

// NewIntensiveRepository constructs the repository.
func NewIntensiveRepository(db *sqlx.DB) *IntensiveRepository {
	return &IntensiveRepository{db: db}
}

func (r *IntensiveRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreatePeriod inserts a period and populates its id.
func (r *IntensiveRepository) CreatePeriod(ctx context.Context, exec sqlx.ExtContext, period *models.IntensivePeriod) error {
	period.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO intensive_periods (name, start_date, end_date, extended, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &period.ID, query, period.Name, period.StartDate, period.EndDate, period.Extended, period.CreatedAt); err != nil {
		return fmt.Errorf("create intensive period: %w", err)
	}
	return nil
}

// GetPeriod fetches a period by id.
func (r *IntensiveRepository) GetPeriod(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.IntensivePeriod, error) {
	query := `SELECT ` + intensivePeriodColumns + ` FROM intensive_periods WHERE id = $1`
	var period models.IntensivePeriod
	if err := sqlx.GetContext(ctx, r.exec(exec), &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// DeletePeriod removes a period with its enrolments and person requests.
func (r *IntensiveRepository) DeletePeriod(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM intensive_periods WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete intensive period: %w", err)
	}
	return nil
}

// ListOverlapping returns periods intersecting [start, end].
func (r *IntensiveRepository) ListOverlapping(ctx context.Context, exec sqlx.ExtContext, start, end time.Time) ([]models.IntensivePeriod, error) {
	query := `SELECT ` + intensivePeriodColumns + ` FROM intensive_periods WHERE start_date <= $2 AND end_date >= $1 ORDER BY start_date ASC`
	var periods []models.IntensivePeriod
	if err := sqlx.SelectContext(ctx, r.exec(exec), &periods, query, start, end); err != nil {
		return nil, fmt.Errorf("list overlapping intensive periods: %w", err)
	}
	return periods, nil
}

// FindPeriodOn returns the period covering date.
func (r *IntensiveRepository) FindPeriodOn(ctx context.Context, exec sqlx.ExtContext, date time.Time) (*models.IntensivePeriod, error) {
	query := `SELECT ` + intensivePeriodColumns + ` FROM intensive_periods WHERE start_date <= $1 AND end_date >= $1 ORDER BY start_date ASC LIMIT 1`
	var period models.IntensivePeriod
	if err := sqlx.GetContext(ctx, r.exec(exec), &period, query, date); err != nil {
		return nil, err
	}
	return &period, nil
}

// CreateAssignment inserts an intensive enrolment and populates its id.
func (r *IntensiveRepository) CreateAssignment(ctx context.Context, exec sqlx.ExtContext, assignment *models.IntensiveAssignment) error {
	assignment.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO intensive_assignments (person_id, period_id, subject, grade, quota, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &assignment.ID, query,
		assignment.PersonID, assignment.PeriodID, assignment.Subject, assignment.Grade, assignment.Quota, assignment.CreatedAt,
	); err != nil {
		return fmt.Errorf("create intensive assignment: %w", err)
	}
	return nil
}

// GetAssignment fetches an intensive enrolment by id.
func (r *IntensiveRepository) GetAssignment(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.IntensiveAssignment, error) {
	const query = `SELECT id, person_id, period_id, subject, grade, quota, created_at FROM intensive_assignments WHERE id = $1`
	var assignment models.IntensiveAssignment
	if err := sqlx.GetContext(ctx, r.exec(exec), &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// EnsurePersonRequest inserts a person availability row unless it already exists.
func (r *IntensiveRepository) EnsurePersonRequest(ctx context.Context, exec sqlx.ExtContext, request models.IntensivePersonRequest) (bool, error) {
	const query = `INSERT INTO intensive_person_requests (person_id, period_id, date, timeslot, available)
VALUES ($1, $2, $3, $4, $5) ON CONFLICT (person_id, period_id, date, timeslot) DO NOTHING`
	result, err := r.exec(exec).ExecContext(ctx, query, request.PersonID, request.PeriodID, request.Date, request.Timeslot, request.Available)
	if err != nil {
		return false, fmt.Errorf("ensure intensive person request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check intensive person request rows: %w", err)
	}
	return affected > 0, nil
}

// SetPersonAvailability updates an existing person availability row.
func (r *IntensiveRepository) SetPersonAvailability(ctx context.Context, exec sqlx.ExtContext, request models.IntensivePersonRequest) (bool, error) {
	const query = `UPDATE intensive_person_requests SET available = $5 WHERE person_id = $1 AND period_id = $2 AND date = $3 AND timeslot = $4`
	result, err := r.exec(exec).ExecContext(ctx, query, request.PersonID, request.PeriodID, request.Date, request.Timeslot, request.Available)
	if err != nil {
		return false, fmt.Errorf("set intensive person availability: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check intensive person availability rows: %w", err)
	}
	return affected > 0, nil
}

// EnsureTeacherRequest inserts a teacher availability row unless it already exists.
func (r *IntensiveRepository) EnsureTeacherRequest(ctx context.Context, exec sqlx.ExtContext, request models.IntensiveTeacherRequest) (bool, error) {
	const query = `INSERT INTO intensive_teacher_requests (teacher_id, date, timeslot, available)
VALUES ($1, $2, $3, $4) ON CONFLICT (teacher_id, date, timeslot) DO NOTHING`
	result, err := r.exec(exec).ExecContext(ctx, query, request.TeacherID, request.Date, request.Timeslot, request.Available)
	if err != nil {
		return false, fmt.Errorf("ensure intensive teacher request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check intensive teacher request rows: %w", err)
	}
	return affected > 0, nil
}

// SetTeacherAvailability updates an existing teacher availability row.
func (r *IntensiveRepository) SetTeacherAvailability(ctx context.Context, exec sqlx.ExtContext, request models.IntensiveTeacherRequest) (bool, error) {
	const query = `UPDATE intensive_teacher_requests SET available = $4 WHERE teacher_id = $1 AND date = $2 AND timeslot = $3`
	result, err := r.exec(exec).ExecContext(ctx, query, request.TeacherID, request.Date, request.Timeslot, request.Available)
	if err != nil {
		return false, fmt.Errorf("set intensive teacher availability: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check intensive teacher availability rows: %w", err)
	}
	return affected > 0, nil
}
