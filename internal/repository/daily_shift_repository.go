package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/tutor-shift-api/internal/models"
)

const dailyShiftColumns = `id, date, timeslot, room, occurrence_slot1, occurrence_slot2, occurrence_slot3, occurrence_slot4, teacher_slot, updated_at`

type dailyShiftRow struct {
	ID          int64     `db:"id"`
	Date        time.Time `db:"date"`
	Timeslot    int       `db:"timeslot"`
	Room        int       `db:"room"`
	Slot1       *int64    `db:"occurrence_slot1"`
	Slot2       *int64    `db:"occurrence_slot2"`
	Slot3       *int64    `db:"occurrence_slot3"`
	Slot4       *int64    `db:"occurrence_slot4"`
	TeacherSlot *int64    `db:"teacher_slot"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row dailyShiftRow) model() models.DailyShiftCell {
	return models.DailyShiftCell{
		ID:              row.ID,
		Date:            row.Date,
		Timeslot:        row.Timeslot,
		Room:            row.Room,
		OccurrenceSlots: models.SlotRefs{row.Slot1, row.Slot2, row.Slot3, row.Slot4},
		TeacherSlot:     row.TeacherSlot,
		UpdatedAt:       row.UpdatedAt,
	}
}

// DailyShiftRepository persists per-date grid cells.
type DailyShiftRepository struct {
	db *sqlx.DB
}

// NewDailyShiftRepository constructs the repository.
func NewDailyShiftRepository(db *sqlx.DB) *DailyShiftRepository {
	return &DailyShiftRepository{db: db}
}

func (r *DailyShiftRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a cell unless one already exists for its (date, timeslot, room) key.
// It reports whether a row was created.
func (r *DailyShiftRepository) Create(ctx context.Context, exec sqlx.ExtContext, cell *models.DailyShiftCell) (bool, error) {
	cell.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO daily_shift_cells (date, timeslot, room, occurrence_slot1, occurrence_slot2, occurrence_slot3, occurrence_slot4, teacher_slot, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (date, timeslot, room) DO NOTHING RETURNING id`
	var ids []int64
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query,
		cell.Date, cell.Timeslot, cell.Room,
		cell.OccurrenceSlots[0], cell.OccurrenceSlots[1], cell.OccurrenceSlots[2], cell.OccurrenceSlots[3],
		cell.TeacherSlot, cell.UpdatedAt,
	); err != nil {
		return false, fmt.Errorf("create daily shift cell: %w", err)
	}
	if len(ids) == 0 {
		return false, nil
	}
	cell.ID = ids[0]
	return true, nil
}

// ListByDate returns the cells of a date ordered by timeslot and room.
func (r *DailyShiftRepository) ListByDate(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]models.DailyShiftCell, error) {
	query := `SELECT ` + dailyShiftColumns + ` FROM daily_shift_cells WHERE date = $1 ORDER BY timeslot ASC, room ASC`
	var rows []dailyShiftRow
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rows, query, date); err != nil {
		return nil, fmt.Errorf("list daily shift cells: %w", err)
	}
	cells := make([]models.DailyShiftCell, len(rows))
	for i, row := range rows {
		cells[i] = row.model()
	}
	return cells, nil
}

// Get fetches a cell by id.
func (r *DailyShiftRepository) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.DailyShiftCell, error) {
	query := `SELECT ` + dailyShiftColumns + ` FROM daily_shift_cells WHERE id = $1`
	var row dailyShiftRow
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, id); err != nil {
		return nil, err
	}
	cell := row.model()
	return &cell, nil
}

// Find fetches the cell for a (date, timeslot, room) key.
func (r *DailyShiftRepository) Find(ctx context.Context, exec sqlx.ExtContext, date time.Time, timeslot, room int) (*models.DailyShiftCell, error) {
	query := `SELECT ` + dailyShiftColumns + ` FROM daily_shift_cells WHERE date = $1 AND timeslot = $2 AND room = $3`
	var row dailyShiftRow
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, date, timeslot, room); err != nil {
		return nil, err
	}
	cell := row.model()
	return &cell, nil
}

// FindByOccurrence returns the cell referencing a lesson occurrence.
func (r *DailyShiftRepository) FindByOccurrence(ctx context.Context, exec sqlx.ExtContext, occurrenceID int64) (*models.DailyShiftCell, error) {
	query := `SELECT ` + dailyShiftColumns + ` FROM daily_shift_cells
WHERE $1 IN (occurrence_slot1, occurrence_slot2, occurrence_slot3, occurrence_slot4) ORDER BY id ASC LIMIT 1`
	var row dailyShiftRow
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, occurrenceID); err != nil {
		return nil, err
	}
	cell := row.model()
	return &cell, nil
}

// SaveSlots persists the slot references of a cell.
func (r *DailyShiftRepository) SaveSlots(ctx context.Context, exec sqlx.ExtContext, cell *models.DailyShiftCell) error {
	cell.UpdatedAt = time.Now().UTC()
	const query = `UPDATE daily_shift_cells SET occurrence_slot1 = $2, occurrence_slot2 = $3, occurrence_slot3 = $4, occurrence_slot4 = $5,
teacher_slot = $6, updated_at = $7 WHERE id = $1`
	if _, err := r.exec(exec).ExecContext(ctx, query, cell.ID,
		cell.OccurrenceSlots[0], cell.OccurrenceSlots[1], cell.OccurrenceSlots[2], cell.OccurrenceSlots[3],
		cell.TeacherSlot, cell.UpdatedAt,
	); err != nil {
		return fmt.Errorf("save daily shift slots: %w", err)
	}
	return nil
}

// DetachOccurrences clears every slot referencing one of ids.
func (r *DailyShiftRepository) DetachOccurrences(ctx context.Context, exec sqlx.ExtContext, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE daily_shift_cells SET
occurrence_slot1 = CASE WHEN occurrence_slot1 = ANY($1) THEN NULL ELSE occurrence_slot1 END,
occurrence_slot2 = CASE WHEN occurrence_slot2 = ANY($1) THEN NULL ELSE occurrence_slot2 END,
occurrence_slot3 = CASE WHEN occurrence_slot3 = ANY($1) THEN NULL ELSE occurrence_slot3 END,
occurrence_slot4 = CASE WHEN occurrence_slot4 = ANY($1) THEN NULL ELSE occurrence_slot4 END,
updated_at = NOW()
WHERE occurrence_slot1 = ANY($1) OR occurrence_slot2 = ANY($1) OR occurrence_slot3 = ANY($1) OR occurrence_slot4 = ANY($1)`
	if _, err := r.exec(exec).ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("detach lesson occurrences: %w", err)
	}
	return nil
}

// DetachTeacherShifts clears every teacher slot referencing one of ids.
func (r *DailyShiftRepository) DetachTeacherShifts(ctx context.Context, exec sqlx.ExtContext, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE daily_shift_cells SET teacher_slot = NULL, updated_at = NOW() WHERE teacher_slot = ANY($1)`
	if _, err := r.exec(exec).ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("detach teacher shifts: %w", err)
	}
	return nil
}

// DeleteByDate removes the cells of a date.
func (r *DailyShiftRepository) DeleteByDate(ctx context.Context, exec sqlx.ExtContext, date time.Time) (int, error) {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM daily_shift_cells WHERE date = $1`, date)
	if err != nil {
		return 0, fmt.Errorf("delete daily shift cells: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deleted daily shift rows: %w", err)
	}
	return int(affected), nil
}

// DeleteTimeslotsInRange removes cells of the given timeslots dated in [start, end].
func (r *DailyShiftRepository) DeleteTimeslotsInRange(ctx context.Context, exec sqlx.ExtContext, start, end time.Time, timeslots []int) (int, error) {
	if len(timeslots) == 0 {
		return 0, nil
	}
	slots := make([]int64, len(timeslots))
	for i, slot := range timeslots {
		slots[i] = int64(slot)
	}
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM daily_shift_cells WHERE date BETWEEN $1 AND $2 AND timeslot = ANY($3)`, start, end, pq.Array(slots))
	if err != nil {
		return 0, fmt.Errorf("delete daily shift timeslots: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deleted daily shift timeslot rows: %w", err)
	}
	return int(affected), nil
}
