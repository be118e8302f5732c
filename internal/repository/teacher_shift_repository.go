package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/tutor-shift-api/internal/models"
)

const teacherShiftColumns = `id, assignment_id, temporary_assignment_id, teacher_id, date, timeslot, is_fixed, created_at`

// TeacherShiftRepository persists concrete teacher shift occurrences.
type TeacherShiftRepository struct {
	db *sqlx.DB
}

// NewTeacherShiftRepository constructs the repository.
func NewTeacherShiftRepository(db *sqlx.DB) *TeacherShiftRepository {
	return &TeacherShiftRepository{db: db}
}

func (r *TeacherShiftRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a shift and populates its id.
func (r *TeacherShiftRepository) Create(ctx context.Context, exec sqlx.ExtContext, shift *models.TeacherShiftOccurrence) error {
	shift.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO teacher_shift_occurrences (assignment_id, temporary_assignment_id, teacher_id, date, timeslot, is_fixed, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &shift.ID, query,
		shift.AssignmentID, shift.TemporaryAssignmentID, shift.TeacherID, shift.Date, shift.Timeslot, shift.IsFixed, shift.CreatedAt,
	); err != nil {
		return fmt.Errorf("create teacher shift: %w", err)
	}
	return nil
}

// Get fetches a shift by id.
func (r *TeacherShiftRepository) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.TeacherShiftOccurrence, error) {
	query := `SELECT ` + teacherShiftColumns + ` FROM teacher_shift_occurrences WHERE id = $1`
	var shift models.TeacherShiftOccurrence
	if err := sqlx.GetContext(ctx, r.exec(exec), &shift, query, id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// Delete removes a shift.
func (r *TeacherShiftRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM teacher_shift_occurrences WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete teacher shift: %w", err)
	}
	return nil
}

// ListByIDs returns the shifts with the given ids.
func (r *TeacherShiftRepository) ListByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) ([]models.TeacherShiftOccurrence, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + teacherShiftColumns + ` FROM teacher_shift_occurrences WHERE id = ANY($1) ORDER BY id ASC`
	var shifts []models.TeacherShiftOccurrence
	if err := sqlx.SelectContext(ctx, r.exec(exec), &shifts, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list teacher shifts by ids: %w", err)
	}
	return shifts, nil
}

// ListDatesForAssignment returns the dates already materialized for an assignment in [start, end].
func (r *TeacherShiftRepository) ListDatesForAssignment(ctx context.Context, exec sqlx.ExtContext, assignmentID int64, start, end time.Time) ([]time.Time, error) {
	const query = `SELECT date FROM teacher_shift_occurrences WHERE assignment_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date ASC`
	var dates []time.Time
	if err := sqlx.SelectContext(ctx, r.exec(exec), &dates, query, assignmentID, start, end); err != nil {
		return nil, fmt.Errorf("list teacher shift dates: %w", err)
	}
	return dates, nil
}

// FindFixed returns the fixed shift of an assignment on date.
func (r *TeacherShiftRepository) FindFixed(ctx context.Context, exec sqlx.ExtContext, assignmentID int64, date time.Time) (*models.TeacherShiftOccurrence, error) {
	query := `SELECT ` + teacherShiftColumns + ` FROM teacher_shift_occurrences
WHERE assignment_id = $1 AND date = $2 AND is_fixed = TRUE ORDER BY id ASC LIMIT 1`
	var shift models.TeacherShiftOccurrence
	if err := sqlx.GetContext(ctx, r.exec(exec), &shift, query, assignmentID, date); err != nil {
		return nil, err
	}
	return &shift, nil
}

// ListUnbound returns ad-hoc shifts on date that no daily cell of that date references.
func (r *TeacherShiftRepository) ListUnbound(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]models.TeacherShiftOccurrence, error) {
	query := `SELECT ` + teacherShiftColumns + ` FROM teacher_shift_occurrences t
WHERE t.date = $1
  AND t.is_fixed = FALSE
  AND NOT EXISTS (SELECT 1 FROM daily_shift_cells c WHERE c.date = $1 AND c.teacher_slot = t.id)
ORDER BY t.id ASC`
	var shifts []models.TeacherShiftOccurrence
	if err := sqlx.SelectContext(ctx, r.exec(exec), &shifts, query, date); err != nil {
		return nil, fmt.Errorf("list unbound teacher shifts: %w", err)
	}
	return shifts, nil
}

// DeleteForAssignmentFrom removes an assignment's shifts dated on or after from and returns
// the deleted ids.
func (r *TeacherShiftRepository) DeleteForAssignmentFrom(ctx context.Context, exec sqlx.ExtContext, assignmentID int64, from time.Time) ([]int64, error) {
	const query = `DELETE FROM teacher_shift_occurrences WHERE assignment_id = $1 AND date >= $2 RETURNING id`
	var ids []int64
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query, assignmentID, from); err != nil {
		return nil, fmt.Errorf("delete teacher shifts for assignment: %w", err)
	}
	return ids, nil
}

// DeleteByDate removes every shift on date and returns the deleted ids.
func (r *TeacherShiftRepository) DeleteByDate(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]int64, error) {
	const query = `DELETE FROM teacher_shift_occurrences WHERE date = $1 RETURNING id`
	var ids []int64
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query, date); err != nil {
		return nil, fmt.Errorf("delete teacher shifts by date: %w", err)
	}
	return ids, nil
}

// ListByTeacher returns a teacher's shifts in [start, end].
func (r *TeacherShiftRepository) ListByTeacher(ctx context.Context, exec sqlx.ExtContext, teacherID int64, start, end time.Time) ([]models.TeacherShiftOccurrence, error) {
	query := `SELECT ` + teacherShiftColumns + ` FROM teacher_shift_occurrences
WHERE teacher_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date ASC, timeslot ASC`
	var shifts []models.TeacherShiftOccurrence
	if err := sqlx.SelectContext(ctx, r.exec(exec), &shifts, query, teacherID, start, end); err != nil {
		return nil, fmt.Errorf("list teacher shifts by teacher: %w", err)
	}
	return shifts, nil
}
