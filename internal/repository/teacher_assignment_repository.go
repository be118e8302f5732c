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

const teacherAssignmentColumns = `id, teacher_id, weekday, timeslot, start_date, end_date, rolled_forward, created_at, updated_at`

// TeacherAssignmentRepository persists fixed weekly teacher assignments and their
// one-day temporary counterparts.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs the repository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

func (r *TeacherAssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts an assignment and populates its id.
func (r *TeacherAssignmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyTeacherAssignment) error {
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO weekly_teacher_assignments (teacher_id, weekday, timeslot, start_date, end_date, rolled_forward, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &assignment.ID, query,
		assignment.TeacherID, assignment.Weekday, assignment.Timeslot, assignment.StartDate, assignment.EndDate,
		assignment.RolledForward, assignment.CreatedAt, assignment.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create teacher assignment: %w", err)
	}
	return nil
}

// Get fetches an assignment by id.
func (r *TeacherAssignmentRepository) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.WeeklyTeacherAssignment, error) {
	query := `SELECT ` + teacherAssignmentColumns + ` FROM weekly_teacher_assignments WHERE id = $1`
	var assignment models.WeeklyTeacherAssignment
	if err := sqlx.GetContext(ctx, r.exec(exec), &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Update persists the mutable range end and roll-forward flag.
func (r *TeacherAssignmentRepository) Update(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyTeacherAssignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE weekly_teacher_assignments SET end_date = :end_date, rolled_forward = :rolled_forward, updated_at = :updated_at WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, assignment)
	if err != nil {
		return fmt.Errorf("update teacher assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated teacher assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an assignment.
func (r *TeacherAssignmentRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM weekly_teacher_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete teacher assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted teacher assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns assignments matching the filter.
func (r *TeacherAssignmentRepository) List(ctx context.Context, exec sqlx.ExtContext, filter models.TeacherAssignmentFilter) ([]models.WeeklyTeacherAssignment, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.TeacherID != nil {
		where = append(where, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, *filter.TeacherID)
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
	query := fmt.Sprintf(`SELECT %s FROM weekly_teacher_assignments WHERE %s ORDER BY start_date DESC, weekday ASC, timeslot ASC LIMIT %d OFFSET %d`,
		teacherAssignmentColumns, whereClause, size, offset)
	var assignments []models.WeeklyTeacherAssignment
	if err := sqlx.SelectContext(ctx, target, &assignments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teacher assignments: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, target, &total, fmt.Sprintf("SELECT COUNT(*) FROM weekly_teacher_assignments WHERE %s", whereClause), args...); err != nil {
		return nil, 0, fmt.Errorf("count teacher assignments: %w", err)
	}
	return assignments, total, nil
}

// ListOverlapping returns a teacher's assignments whose range intersects [start, end].
func (r *TeacherAssignmentRepository) ListOverlapping(ctx context.Context, exec sqlx.ExtContext, teacherID int64, start, end time.Time) ([]models.WeeklyTeacherAssignment, error) {
	query := `SELECT ` + teacherAssignmentColumns + ` FROM weekly_teacher_assignments
WHERE teacher_id = $1 AND start_date <= $3 AND end_date >= $2 ORDER BY weekday ASC, timeslot ASC`
	var assignments []models.WeeklyTeacherAssignment
	if err := sqlx.SelectContext(ctx, r.exec(exec), &assignments, query, teacherID, start, end); err != nil {
		return nil, fmt.Errorf("list overlapping teacher assignments: %w", err)
	}
	return assignments, nil
}

// ListEndingOn returns assignments whose range ends exactly on date.
func (r *TeacherAssignmentRepository) ListEndingOn(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]models.WeeklyTeacherAssignment, error) {
	query := `SELECT ` + teacherAssignmentColumns + ` FROM weekly_teacher_assignments WHERE end_date = $1 ORDER BY id ASC`
	var assignments []models.WeeklyTeacherAssignment
	if err := sqlx.SelectContext(ctx, r.exec(exec), &assignments, query, date); err != nil {
		return nil, fmt.Errorf("list teacher assignments ending on date: %w", err)
	}
	return assignments, nil
}

// ListActiveOn returns assignments for weekday whose range covers date.
func (r *TeacherAssignmentRepository) ListActiveOn(ctx context.Context, exec sqlx.ExtContext, weekday int, date time.Time) ([]models.WeeklyTeacherAssignment, error) {
	query := `SELECT ` + teacherAssignmentColumns + ` FROM weekly_teacher_assignments
WHERE weekday = $1 AND start_date <= $2 AND end_date >= $2 ORDER BY id ASC`
	var assignments []models.WeeklyTeacherAssignment
	if err := sqlx.SelectContext(ctx, r.exec(exec), &assignments, query, weekday, date); err != nil {
		return nil, fmt.Errorf("list active teacher assignments: %w", err)
	}
	return assignments, nil
}

// CreateTemporary inserts a one-day teacher assignment.
func (r *TeacherAssignmentRepository) CreateTemporary(ctx context.Context, exec sqlx.ExtContext, assignment *models.TemporaryTeacherAssignment) error {
	assignment.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO temporary_teacher_assignments (teacher_id, date, timeslot, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &assignment.ID, query, assignment.TeacherID, assignment.Date, assignment.Timeslot, assignment.CreatedAt); err != nil {
		return fmt.Errorf("create temporary teacher assignment: %w", err)
	}
	return nil
}

// DeleteTemporary removes a one-day teacher assignment.
func (r *TeacherAssignmentRepository) DeleteTemporary(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM temporary_teacher_assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete temporary teacher assignment: %w", err)
	}
	return nil
}

// DeleteTemporaryByDate removes every one-day teacher assignment on date.
func (r *TeacherAssignmentRepository) DeleteTemporaryByDate(ctx context.Context, exec sqlx.ExtContext, date time.Time) (int64, error) {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM temporary_teacher_assignments WHERE date = $1`, date)
	if err != nil {
		return 0, fmt.Errorf("delete temporary teacher assignments by date: %w", err)
	}
	return result.RowsAffected()
}
