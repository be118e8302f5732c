package models

import "time"

// IntensivePeriod is a bounded seasonal course window.
type IntensivePeriod struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Extended  bool      `db:"extended" json:"extended"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Contains reports whether date falls inside the period.
func (p IntensivePeriod) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// IntensiveAssignment is a person's enrolment in an intensive course.
type IntensiveAssignment struct {
	ID        int64     `db:"id" json:"id"`
	PersonID  int64     `db:"person_id" json:"person_id"`
	PeriodID  int64     `db:"period_id" json:"period_id"`
	Subject   string    `db:"subject" json:"subject"`
	Grade     int       `db:"grade" json:"grade"`
	Quota     int       `db:"quota" json:"quota"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IntensivePersonRequest records whether a person can attend a timeslot on a date.
type IntensivePersonRequest struct {
	ID        int64     `db:"id" json:"id"`
	PersonID  int64     `db:"person_id" json:"person_id"`
	PeriodID  int64     `db:"period_id" json:"period_id"`
	Date      time.Time `db:"date" json:"date"`
	Timeslot  int       `db:"timeslot" json:"timeslot"`
	Available bool      `db:"available" json:"available"`
}

// IntensiveTeacherRequest records whether a teacher can work a timeslot on a date.
type IntensiveTeacherRequest struct {
	ID        int64     `db:"id" json:"id"`
	TeacherID int64     `db:"teacher_id" json:"teacher_id"`
	Date      time.Time `db:"date" json:"date"`
	Timeslot  int       `db:"timeslot" json:"timeslot"`
	Available bool      `db:"available" json:"available"`
}
