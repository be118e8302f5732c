package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-shift-api/internal/models"
)

const lessonAssignmentColumns = `id, person_id, subject, weekday, timeslot, grade, start_date, end_date, rolled_forward, created_at, updated_at`

// LessonAssignmentRepository persists weekly lesson assignments.
type LessonAssignmentRepository struct {
	db *sqlx.DB
}

// NewLessonAssignmentRepository constructs the repository.
func NewLessonAssignmentRepository(db *sqlx.DB) *LessonAssignmentRepository {
	return &LessonAssignmentRepository{db: db}
}

func (r *LessonAssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts an assignment and populates its id.
func (r *LessonAssignmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyLessonAssignment) error {
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO weekly_lesson_assignments (person_id, subject, weekday, timeslot, grade, start_date, end_date, rolled_forward, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &assignment.ID, query,
		assignment.PersonID, assignment.Subject, assignment.Weekday, assignment.Timeslot, assignment.Grade,
		assignment.StartDate, assignment.EndDate, assignment.RolledForward, assignment.CreatedAt, assignment.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create lesson assignment: %w", err)
	}
	return nil
}

// Get fetches an assignment by id.
func (r *LessonAssignmentRepository) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.WeeklyLessonAssignment, error) {
	query := `SELECT ` + lessonAssignmentColumns + ` FROM weekly_lesson_assignments WHERE id = $1`
	var assignment models.WeeklyLessonAssignment
	if err := sqlx.GetContext(ctx, r.exec(exec), &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Update persists the mutable range end and roll-forward flag.
func (r *LessonAssignmentRepository) Update(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyLessonAssignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE weekly_lesson_assignments SET end_date = :end_date, rolled_forward = :rolled_forward, updated_at = :updated_at WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, assignment)
	if err != nil {
		return fmt.Errorf("update lesson assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated lesson assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an assignment.
func (r *LessonAssignmentRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM weekly_lesson_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted lesson assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns assignments matching the filter.
func (r *LessonAssignmentRepository) List(ctx context.Context, exec sqlx.ExtContext, filter models.LessonAssignmentFilter) ([]models.WeeklyLessonAssignment, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.PersonID != nil {
		where = append(where, fmt.Sprintf("person_id = $%d", len(args)+1))
		args = append(args, *filter.PersonID)
	}
	if filter.ActiveOn != nil {
		where = append(where, fmt.Sprintf("start_date <= $%d AND end_date >= $%d", len(args)+1, len(args)+1))
		args = append(args, *filter.ActiveOn)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	target := r.exec(exec)
	query := fmt.Sprintf(`SELECT %s FROM weekly_lesson_assignments WHERE %s ORDER BY start_date DESC, weekday ASC, timeslot ASC LIMIT %d OFFSET %d`,
		lessonAssignmentColumns, whereClause, size, offset)
	var assignments []models.WeeklyLessonAssignment
	if err := sqlx.SelectContext(ctx, target, &assignments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lesson assignments: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, target, &total, fmt.Sprintf("SELECT COUNT(*) FROM weekly_lesson_assignments WHERE %s", whereClause), args...); err != nil {
		return nil, 0, fmt.Errorf("count lesson assignments: %w", err)
	}
	return assignments, total, nil
}

// ListOverlapping returns a person's assignments whose range intersects [start, end].
func (r *LessonAssignmentRepository) ListOverlapping(ctx context.Context, exec sqlx.ExtContext, personID int64, start, end time.Time) ([]models.WeeklyLessonAssignment, error) {
	query := `SELECT ` + lessonAssignmentColumns + ` FROM weekly_lesson_assignments
WHERE person_id = $1 AND start_date <= $3 AND end_date >= $2 ORDER BY weekday ASC, timeslot ASC`
	var assignments []models.WeeklyLessonAssignment
	if err := sqlx.SelectContext(ctx, r.exec(exec), &assignments, query, personID, start, end); err != nil {
		return nil, fmt.Errorf("list overlapping lesson assignments: %w", err)
	}
	return assignments, nil
}

// ListEndingOn returns assignments whose range ends exactly on date.
func (r *LessonAssignmentRepository) ListEndingOn(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]models.WeeklyLessonAssignment, error) {
	query := `SELECT ` + lessonAssignmentColumns + ` FROM weekly_lesson_assignments WHERE end_date = $1 ORDER BY id ASC`
	var assignments []models.WeeklyLessonAssignment
	if err := sqlx.SelectContext(ctx, r.exec(exec), &assignments, query, date); err != nil {
		return nil, fmt.Errorf("list lesson assignments ending on date: %w", err)
	}
	return assignments, nil
}

// ListActiveOn returns assignments for the weekday of date whose range covers date.
func (r *LessonAssignmentRepository) ListActiveOn(ctx context.Context, exec sqlx.ExtContext, weekday int, date time.Time) ([]models.WeeklyLessonAssignment, error) {
	query := `SELECT ` + lessonAssignmentColumns + ` FROM weekly_lesson_assignments
WHERE weekday = $1 AND start_date <= $2 AND end_date >= $2 ORDER BY id ASC`
	var assignments []models.WeeklyLessonAssignment
	if err := sqlx.SelectContext(ctx, r.exec(exec), &assignments, query, weekday, date); err != nil {
		return nil, fmt.Errorf("list active lesson assignments: %w", err)
	}
	return assignments, nil
}
