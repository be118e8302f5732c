package models

import "time"

// WeeklyLessonAssignment is a person's recurring weekday+timeslot lesson over a date range.
// It is never edited in place: changes end the assignment and create a replacement.
type WeeklyLessonAssignment struct {
	ID            int64     `db:"id" json:"id"`
	PersonID      int64     `db:"person_id" json:"person_id"`
	Subject       string    `db:"subject" json:"subject"`
	Weekday       int       `db:"weekday" json:"weekday"`
	Timeslot      int       `db:"timeslot" json:"timeslot"`
	Grade         int       `db:"grade" json:"grade"`
	StartDate     time.Time `db:"start_date" json:"start_date"`
	EndDate       time.Time `db:"end_date" json:"end_date"`
	RolledForward bool      `db:"rolled_forward" json:"rolled_forward"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ActiveOn reports whether date lies inside the assignment range.
func (a WeeklyLessonAssignment) ActiveOn(date time.Time) bool {
	return !date.Before(a.StartDate) && !date.After(a.EndDate)
}

// LessonAssignmentFilter narrows assignment listings.
type LessonAssignmentFilter struct {
	PersonID *int64
	ActiveOn *time.Time
	Page     int
	PageSize int
}
