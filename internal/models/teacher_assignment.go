package models

import "time"

// WeeklyTeacherAssignment is a teacher's fixed recurring shift.
type WeeklyTeacherAssignment struct {
	ID            int64     `db:"id" json:"id"`
	TeacherID     int64     `db:"teacher_id" json:"teacher_id"`
	Weekday       int       `db:"weekday" json:"weekday"`
	Timeslot      int       `db:"timeslot" json:"timeslot"`
	StartDate     time.Time `db:"start_date" json:"start_date"`
	EndDate       time.Time `db:"end_date" json:"end_date"`
	RolledForward bool      `db:"rolled_forward" json:"rolled_forward"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ActiveOn reports whether date lies inside the assignment range.
func (a WeeklyTeacherAssignment) ActiveOn(date time.Time) bool {
	return !date.Before(a.StartDate) && !date.After(a.EndDate)
}

// TemporaryTeacherAssignment is the one-day source of an ad-hoc teacher shift.
type TemporaryTeacherAssignment struct {
	ID        int64     `db:"id" json:"id"`
	TeacherID int64     `db:"teacher_id" json:"teacher_id"`
	Date      time.Time `db:"date" json:"date"`
	Timeslot  int       `db:"timeslot" json:"timeslot"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherAssignmentFilter narrows assignment listings.
type TeacherAssignmentFilter struct {
	TeacherID *int64
	ActiveOn  *time.Time
	Page      int
	PageSize  int
}
