package models

import "time"

// LessonOccurrence is a concrete, date-stamped lesson. AssignmentID and
// IntensiveAssignmentID are mutually exclusive; both nil marks a temporary lesson.
type LessonOccurrence struct {
	ID                    int64      `db:"id" json:"id"`
	AssignmentID          *int64     `db:"assignment_id" json:"assignment_id,omitempty"`
	IntensiveAssignmentID *int64     `db:"intensive_assignment_id" json:"intensive_assignment_id,omitempty"`
	PersonID              int64      `db:"person_id" json:"person_id"`
	Subject               string     `db:"subject" json:"subject"`
	Grade                 int        `db:"grade" json:"grade"`
	Date                  time.Time  `db:"date" json:"date"`
	Timeslot              int        `db:"timeslot" json:"timeslot"`
	RescheduledDate       *time.Time `db:"rescheduled_date" json:"rescheduled_date,omitempty"`
	RescheduledTimeslot   *int       `db:"rescheduled_timeslot" json:"rescheduled_timeslot,omitempty"`
	IsRegular             bool       `db:"is_regular" json:"is_regular"`
	IsTemporary           bool       `db:"is_temporary" json:"is_temporary"`
	IsAbsent              bool       `db:"is_absent" json:"is_absent"`
	IsUnauthorizedAbsence bool       `db:"is_unauthorized_absence" json:"is_unauthorized_absence"`
	IsRescheduled         bool       `db:"is_rescheduled" json:"is_rescheduled"`
	IsReported            bool       `db:"is_reported" json:"is_reported"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// IsIntensive reports whether the occurrence fills an intensive-course slot.
func (o LessonOccurrence) IsIntensive() bool {
	return o.IntensiveAssignmentID != nil
}

// EffectiveDate is the date the lesson actually takes place.
func (o LessonOccurrence) EffectiveDate() time.Time {
	if o.IsRescheduled && o.RescheduledDate != nil {
		return *o.RescheduledDate
	}
	return o.Date
}

// EffectiveTimeslot is the timeslot the lesson actually takes place in.
func (o LessonOccurrence) EffectiveTimeslot() int {
	if o.IsRescheduled && o.RescheduledTimeslot != nil {
		return *o.RescheduledTimeslot
	}
	return o.Timeslot
}

// TeacherShiftOccurrence is a concrete teacher shift on one date.
type TeacherShiftOccurrence struct {
	ID                    int64     `db:"id" json:"id"`
	AssignmentID          *int64    `db:"assignment_id" json:"assignment_id,omitempty"`
	TemporaryAssignmentID *int64    `db:"temporary_assignment_id" json:"temporary_assignment_id,omitempty"`
	TeacherID             int64     `db:"teacher_id" json:"teacher_id"`
	Date                  time.Time `db:"date" json:"date"`
	Timeslot              int       `db:"timeslot" json:"timeslot"`
	IsFixed               bool      `db:"is_fixed" json:"is_fixed"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}
