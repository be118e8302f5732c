package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/tutor-shift-api/internal/models"
)

const lessonOccurrenceColumns = `id, assignment_id, intensive_assignment_id, person_id, subject, grade, date, timeslot,
rescheduled_date, rescheduled_timeslot, is_regular, is_temporary, is_absent, is_unauthorized_absence,
is_rescheduled, is_reported, created_at, updated_at`

// LessonOccurrenceRepository persists concrete lesson occurrences.
type LessonOccurrenceRepository struct {
	db *sqlx.DB
}

// NewLessonOccurrenceRepository constructs the repository.
func NewLessonOccurrenceRepository(db *sqlx.DB) *LessonOccurrenceRepository {
	return &LessonOccurrenceRepository{db: db}
}

func (r *LessonOccurrenceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts an occurrence and populates its id.
func (r *LessonOccurrenceRepository) Create(ctx context.Context, exec sqlx.ExtContext, occurrence *models.LessonOccurrence) error {
	now := time.Now().UTC()
	occurrence.CreatedAt = now
	occurrence.UpdatedAt = now
	const query = `INSERT INTO lesson_occurrences (assignment_id, intensive_assignment_id, person_id, subject, grade, date, timeslot,
rescheduled_date, rescheduled_timeslot, is_regular, is_temporary, is_absent, is_unauthorized_absence, is_rescheduled, is_reported, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &occurrence.ID, query,
		occurrence.AssignmentID, occurrence.IntensiveAssignmentID, occurrence.PersonID, occurrence.Subject, occurrence.Grade,
		occurrence.Date, occurrence.Timeslot, occurrence.RescheduledDate, occurrence.RescheduledTimeslot,
		occurrence.IsRegular, occurrence.IsTemporary, occurrence.IsAbsent, occurrence.IsUnauthorizedAbsence,
		occurrence.IsRescheduled, occurrence.IsReported, occurrence.CreatedAt, occurrence.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create lesson occurrence: %w", err)
	}
	return nil
}

// Get fetches an occurrence by id.
func (r *LessonOccurrenceRepository) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.LessonOccurrence, error) {
	query := `SELECT ` + lessonOccurrenceColumns + ` FROM lesson_occurrences WHERE id = $1`
	var occurrence models.LessonOccurrence
	if err := sqlx.GetContext(ctx, r.exec(exec), &occurrence, query, id); err != nil {
		return nil, err
	}
	return &occurrence, nil
}

// Update persists the mutable state of an occurrence.
func (r *LessonOccurrenceRepository) Update(ctx context.Context, exec sqlx.ExtContext, occurrence *models.LessonOccurrence) error {
	occurrence.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lesson_occurrences SET grade = :grade, rescheduled_date = :rescheduled_date, rescheduled_timeslot = :rescheduled_timeslot,
is_absent = :is_absent, is_unauthorized_absence = :is_unauthorized_absence, is_rescheduled = :is_rescheduled,
is_reported = :is_reported, updated_at = :updated_at WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, occurrence)
	if err != nil {
		return fmt.Errorf("update lesson occurrence: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated lesson occurrence rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an occurrence.
func (r *LessonOccurrenceRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM lesson_occurrences WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lesson occurrence: %w", err)
	}
	return nil
}

// ListByIDs returns the occurrences with the given ids.
func (r *LessonOccurrenceRepository) ListByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) ([]models.LessonOccurrence, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + lessonOccurrenceColumns + ` FROM lesson_occurrences WHERE id = ANY($1) ORDER BY id ASC`
	var occurrences []models.LessonOccurrence
	if err := sqlx.SelectContext(ctx, r.exec(exec), &occurrences, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list lesson occurrences by ids: %w", err)
	}
	return occurrences, nil
}

// ListDatesForAssignment returns the dates already materialized for an assignment in [start, end].
func (r *LessonOccurrenceRepository) ListDatesForAssignment(ctx context.Context, exec sqlx.ExtContext, assignmentID int64, start, end time.Time) ([]time.Time, error) {
	const query = `SELECT date FROM lesson_occurrences WHERE assignment_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date ASC`
	var dates []time.Time
	if err := sqlx.SelectContext(ctx, r.exec(exec), &dates, query, assignmentID, start, end); err != nil {
		return nil, fmt.Errorf("list lesson occurrence dates: %w", err)
	}
	return dates, nil
}

// FindBindable returns the regular occurrence of an assignment that should sit in the
// assignment's slot on date.
func (r *LessonOccurrenceRepository) FindBindable(ctx context.Context, exec sqlx.ExtContext, assignmentID int64, date time.Time) (*models.LessonOccurrence, error) {
	query := `SELECT ` + lessonOccurrenceColumns + ` FROM lesson_occurrences
WHERE assignment_id = $1 AND date = $2 AND is_rescheduled = FALSE AND is_absent = FALSE ORDER BY id ASC LIMIT 1`
	var occurrence models.LessonOccurrence
	if err := sqlx.GetContext(ctx, r.exec(exec), &occurrence, query, assignmentID, date); err != nil {
		return nil, err
	}
	return &occurrence, nil
}

// ListUnbound returns occurrences taking place on date, not absent, that no daily cell of
// that date references. Unless includeRegular is set, regular occurrences still on their
// original date are left out so slots an operator cleared stay empty.
func (r *LessonOccurrenceRepository) ListUnbound(ctx context.Context, exec sqlx.ExtContext, date time.Time, includeRegular bool) ([]models.LessonOccurrence, error) {
	query := `SELECT ` + lessonOccurrenceColumns + ` FROM lesson_occurrences o
WHERE o.is_absent = FALSE
  AND ($2 OR o.is_regular = FALSE OR o.is_rescheduled = TRUE)
  AND ((o.is_rescheduled = TRUE AND o.rescheduled_date = $1) OR (o.is_rescheduled = FALSE AND o.date = $1))
  AND NOT EXISTS (
    SELECT 1 FROM daily_shift_cells c
    WHERE c.date = $1 AND o.id IN (c.occurrence_slot1, c.occurrence_slot2, c.occurrence_slot3, c.occurrence_slot4)
  )
ORDER BY o.id ASC`
	var occurrences []models.LessonOccurrence
	if err := sqlx.SelectContext(ctx, r.exec(exec), &occurrences, query, date, includeRegular); err != nil {
		return nil, fmt.Errorf("list unbound lesson occurrences: %w", err)
	}
	return occurrences, nil
}

// DeleteForAssignmentFrom removes an assignment's occurrences dated on or after from and
// returns the deleted ids.
func (r *LessonOccurrenceRepository) DeleteForAssignmentFrom(ctx context.Context, exec sqlx.ExtContext, assignmentID int64, from time.Time) ([]int64, error) {
	const query = `DELETE FROM lesson_occurrences WHERE assignment_id = $1 AND date >= $2 RETURNING id`
	var ids []int64
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query, assignmentID, from); err != nil {
		return nil, fmt.Errorf("delete lesson occurrences for assignment: %w", err)
	}
	return ids, nil
}

// CountForIntensive returns how many occurrences are booked against an intensive assignment.
func (r *LessonOccurrenceRepository) CountForIntensive(ctx context.Context, exec sqlx.ExtContext, intensiveAssignmentID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM lesson_occurrences WHERE intensive_assignment_id = $1`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, intensiveAssignmentID); err != nil {
		return 0, fmt.Errorf("count intensive lesson occurrences: %w", err)
	}
	return count, nil
}

// DeleteByDate removes every occurrence dated on date and returns the deleted ids.
func (r *LessonOccurrenceRepository) DeleteByDate(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]int64, error) {
	const query = `DELETE FROM lesson_occurrences WHERE date = $1 RETURNING id`
	var ids []int64
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query, date); err != nil {
		return nil, fmt.Errorf("delete lesson occurrences by date: %w", err)
	}
	return ids, nil
}

// ListByPerson returns a person's occurrences taking place in [start, end].
func (r *LessonOccurrenceRepository) ListByPerson(ctx context.Context, exec sqlx.ExtContext, personID int64, start, end time.Time) ([]models.LessonOccurrence, error) {
	query := `SELECT ` + lessonOccurrenceColumns + ` FROM lesson_occurrences
WHERE person_id = $1 AND COALESCE(CASE WHEN is_rescheduled THEN rescheduled_date END, date) BETWEEN $2 AND $3
ORDER BY date ASC, timeslot ASC`
	var occurrences []models.LessonOccurrence
	if err := sqlx.SelectContext(ctx, r.exec(exec), &occurrences, query, personID, start, end); err != nil {
		return nil, fmt.Errorf("list lesson occurrences by person: %w", err)
	}
	return occurrences, nil
}

// SetReported toggles the report-writing flag.
func (r *LessonOccurrenceRepository) SetReported(ctx context.Context, exec sqlx.ExtContext, id int64, reported bool) error {
	result, err := r.exec(exec).ExecContext(ctx, `UPDATE lesson_occurrences SET is_reported = $2, updated_at = NOW() WHERE id = $1`, id, reported)
	if err != nil {
		return fmt.Errorf("set lesson occurrence reported: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check reported lesson occurrence rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
