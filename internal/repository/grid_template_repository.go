package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-shift-api/internal/models"
)

const gridTemplateColumns = `id, year_tag, weekday, timeslot, room, lesson_slot1, lesson_slot2, lesson_slot3, lesson_slot4, teacher_slot, updated_at`

type gridTemplateRow struct {
	ID          int64     `db:"id"`
	YearTag     string    `db:"year_tag"`
	Weekday     int       `db:"weekday"`
	Timeslot    int       `db:"timeslot"`
	Room        int       `db:"room"`
	Slot1       *int64    `db:"lesson_slot1"`
	Slot2       *int64    `db:"lesson_slot2"`
	Slot3       *int64    `db:"lesson_slot3"`
	Slot4       *int64    `db:"lesson_slot4"`
	TeacherSlot *int64    `db:"teacher_slot"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row gridTemplateRow) model() models.GridTemplateCell {
	return models.GridTemplateCell{
		ID:          row.ID,
		YearTag:     models.YearTag(row.YearTag),
		Weekday:     row.Weekday,
		Timeslot:    row.Timeslot,
		Room:        row.Room,
		LessonSlots: models.SlotRefs{row.Slot1, row.Slot2, row.Slot3, row.Slot4},
		TeacherSlot: row.TeacherSlot,
		UpdatedAt:   row.UpdatedAt,
	}
}

func toGridTemplateCells(rows []gridTemplateRow) []models.GridTemplateCell {
	cells := make([]models.GridTemplateCell, len(rows))
	for i, row := range rows {
		cells[i] = row.model()
	}
	return cells
}

// GridTemplateRepository persists the weekly grid template for both year tags.
type GridTemplateRepository struct {
	db *sqlx.DB
}

// NewGridTemplateRepository constructs the repository.
func NewGridTemplateRepository(db *sqlx.DB) *GridTemplateRepository {
	return &GridTemplateRepository{db: db}
}

func (r *GridTemplateRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateEmpty inserts an empty cell per key, leaving existing keys untouched. It returns the
// number of cells created.
func (r *GridTemplateRepository) CreateEmpty(ctx context.Context, exec sqlx.ExtContext, tag models.YearTag, weekdays, timeslots, rooms []int) (int, error) {
	target := r.exec(exec)
	const query = `INSERT INTO grid_template_cells (year_tag, weekday, timeslot, room, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (year_tag, weekday, timeslot, room) DO NOTHING`
	now := time.Now().UTC()
	created := 0
	for _, weekday := range weekdays {
		for _, room := range rooms {
			for _, timeslot := range timeslots {
				result, err := target.ExecContext(ctx, query, string(tag), weekday, timeslot, room, now)
				if err != nil {
					return created, fmt.Errorf("create grid template cell: %w", err)
				}
				affected, err := result.RowsAffected()
				if err != nil {
					return created, fmt.Errorf("check created grid template rows: %w", err)
				}
				created += int(affected)
			}
		}
	}
	return created, nil
}

// List returns the cells of a year tag, optionally restricted to one weekday.
func (r *GridTemplateRepository) List(ctx context.Context, exec sqlx.ExtContext, tag models.YearTag, weekday *int) ([]models.GridTemplateCell, error) {
	query := `SELECT ` + gridTemplateColumns + ` FROM grid_template_cells WHERE year_tag = $1`
	args := []interface{}{string(tag)}
	if weekday != nil {
		query += ` AND weekday = $2`
		args = append(args, *weekday)
	}
	query += ` ORDER BY weekday ASC, timeslot ASC, room ASC`
	var rows []gridTemplateRow
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list grid template cells: %w", err)
	}
	return toGridTemplateCells(rows), nil
}

// ListSlot returns the cells for a weekday and timeslot across all rooms.
func (r *GridTemplateRepository) ListSlot(ctx context.Context, exec sqlx.ExtContext, tag models.YearTag, weekday, timeslot int) ([]models.GridTemplateCell, error) {
	query := `SELECT ` + gridTemplateColumns + ` FROM grid_template_cells WHERE year_tag = $1 AND weekday = $2 AND timeslot = $3 ORDER BY room ASC`
	var rows []gridTemplateRow
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rows, query, string(tag), weekday, timeslot); err != nil {
		return nil, fmt.Errorf("list grid template slot: %w", err)
	}
	return toGridTemplateCells(rows), nil
}

// Get fetches a cell by id.
func (r *GridTemplateRepository) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.GridTemplateCell, error) {
	query := `SELECT ` + gridTemplateColumns + ` FROM grid_template_cells WHERE id = $1`
	var row gridTemplateRow
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, id); err != nil {
		return nil, err
	}
	cell := row.model()
	return &cell, nil
}

// FindByLessonAssignment returns the cell holding a lesson assignment.
func (r *GridTemplateRepository) FindByLessonAssignment(ctx context.Context, exec sqlx.ExtContext, assignmentID int64) (*models.GridTemplateCell, error) {
	query := `SELECT ` + gridTemplateColumns + ` FROM grid_template_cells
WHERE $1 IN (lesson_slot1, lesson_slot2, lesson_slot3, lesson_slot4) ORDER BY id ASC LIMIT 1`
	var row gridTemplateRow
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, assignmentID); err != nil {
		return nil, err
	}
	cell := row.model()
	return &cell, nil
}

// FindByTeacherAssignment returns the cell holding a teacher assignment.
func (r *GridTemplateRepository) FindByTeacherAssignment(ctx context.Context, exec sqlx.ExtContext, assignmentID int64) (*models.GridTemplateCell, error) {
	query := `SELECT ` + gridTemplateColumns + ` FROM grid_template_cells WHERE teacher_slot = $1 ORDER BY id ASC LIMIT 1`
	var row gridTemplateRow
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, assignmentID); err != nil {
		return nil, err
	}
	cell := row.model()
	return &cell, nil
}

// SaveSlots persists the slot references of a cell.
func (r *GridTemplateRepository) SaveSlots(ctx context.Context, exec sqlx.ExtContext, cell *models.GridTemplateCell) error {
	cell.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grid_template_cells SET lesson_slot1 = $2, lesson_slot2 = $3, lesson_slot3 = $4, lesson_slot4 = $5,
teacher_slot = $6, updated_at = $7 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, cell.ID,
		cell.LessonSlots[0], cell.LessonSlots[1], cell.LessonSlots[2], cell.LessonSlots[3],
		cell.TeacherSlot, cell.UpdatedAt,
	); err != nil {
		return fmt.Errorf("save grid template slots: %w", err)
	}
	return nil
}

// DeleteByYear removes every cell of a year tag.
func (r *GridTemplateRepository) DeleteByYear(ctx context.Context, exec sqlx.ExtContext, tag models.YearTag) (int, error) {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM grid_template_cells WHERE year_tag = $1`, string(tag))
	if err != nil {
		return 0, fmt.Errorf("delete grid template year: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deleted grid template rows: %w", err)
	}
	return int(affected), nil
}

// Retag moves every cell from one year tag to another.
func (r *GridTemplateRepository) Retag(ctx context.Context, exec sqlx.ExtContext, from, to models.YearTag) (int, error) {
	result, err := r.exec(exec).ExecContext(ctx, `UPDATE grid_template_cells SET year_tag = $2, updated_at = NOW() WHERE year_tag = $1`, string(from), string(to))
	if err != nil {
		return 0, fmt.Errorf("retag grid template: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check retagged grid template rows: %w", err)
	}
	return int(affected), nil
}
