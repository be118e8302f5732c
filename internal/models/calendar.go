package models

import "time"

// CalendarEvent is a dated school calendar entry. Closure events suppress lessons;
// fixed events are managed by the system (intensive period markers).
type CalendarEvent struct {
	ID        int64     `db:"id" json:"id"`
	Date      time.Time `db:"date" json:"date"`
	Title     string    `db:"title" json:"title"`
	IsClosure bool      `db:"is_closure" json:"is_closure"`
	IsFixed   bool      `db:"is_fixed" json:"is_fixed"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CalendarFilter narrows down events.
type CalendarFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Closures  *bool
}
