package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-shift-api/internal/models"
)

const calendarColumns = `id, date, title, is_closure, is_fixed, created_at`

// CalendarRepository persists dated calendar events.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs a calendar repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

func (r *CalendarRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns events matching filters ordered by date.
func (r *CalendarRepository) List(ctx context.Context, exec sqlx.ExtContext, filter models.CalendarFilter) ([]models.CalendarEvent, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StartDate != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}
	if filter.Closures != nil {
		where = append(where, fmt.Sprintf("is_closure = $%d", len(args)+1))
		args = append(args, *filter.Closures)
	}
	query := fmt.Sprintf(`SELECT %s FROM calendar_events WHERE %s ORDER BY date ASC, id ASC`, calendarColumns, strings.Join(where, " AND "))
	var events []models.CalendarEvent
	if err := sqlx.SelectContext(ctx, r.exec(exec), &events, query, args...); err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return events, nil
}

// Get fetches a calendar event.
func (r *CalendarRepository) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.CalendarEvent, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendar_events WHERE id = $1`
	var event models.CalendarEvent
	if err := sqlx.GetContext(ctx, r.exec(exec), &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts an event and populates its id.
func (r *CalendarRepository) Create(ctx context.Context, exec sqlx.ExtContext, event *models.CalendarEvent) error {
	event.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO calendar_events (date, title, is_closure, is_fixed, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &event.ID, query, event.Date, event.Title, event.IsClosure, event.IsFixed, event.CreatedAt); err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	return nil
}

// Delete removes an event.
func (r *CalendarRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM calendar_events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}

// IsClosure reports whether a closure event exists on date.
func (r *CalendarRepository) IsClosure(ctx context.Context, exec sqlx.ExtContext, date time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM calendar_events WHERE date = $1 AND is_closure = TRUE)`
	var closed bool
	if err := sqlx.GetContext(ctx, r.exec(exec), &closed, query, date); err != nil {
		return false, fmt.Errorf("check closure: %w", err)
	}
	return closed, nil
}

// ListClosureDates returns the closure dates in [start, end].
func (r *CalendarRepository) ListClosureDates(ctx context.Context, exec sqlx.ExtContext, start, end time.Time) ([]time.Time, error) {
	const query = `SELECT DISTINCT date FROM calendar_events WHERE is_closure = TRUE AND date BETWEEN $1 AND $2 ORDER BY date ASC`
	var dates []time.Time
	if err := sqlx.SelectContext(ctx, r.exec(exec), &dates, query, start, end); err != nil {
		return nil, fmt.Errorf("list closure dates: %w", err)
	}
	return dates, nil
}

// DeleteNonClosureOn removes every event on date that is not a closure.
func (r *CalendarRepository) DeleteNonClosureOn(ctx context.Context, exec sqlx.ExtContext, date time.Time) (int64, error) {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM calendar_events WHERE date = $1 AND is_closure = FALSE`, date)
	if err != nil {
		return 0, fmt.Errorf("delete non-closure events: %w", err)
	}
	return result.RowsAffected()
}

// DeleteFixedInRange removes system-managed events dated in [start, end].
func (r *CalendarRepository) DeleteFixedInRange(ctx context.Context, exec sqlx.ExtContext, start, end time.Time) (int64, error) {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM calendar_events WHERE is_fixed = TRUE AND date BETWEEN $1 AND $2`, start, end)
	if err != nil {
		return 0, fmt.Errorf("delete fixed events: %w", err)
	}
	return result.RowsAffected()
}
