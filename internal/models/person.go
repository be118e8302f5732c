package models

import "time"

// Person is an enrolled pupil as seen by the scheduling engine.
type Person struct {
	ID                 int64      `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	Grade              int        `db:"grade" json:"grade"`
	BirthDate          *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Withdrawn          bool       `db:"withdrawn" json:"withdrawn"`
	PlanningToWithdraw bool       `db:"planning_to_withdraw" json:"planning_to_withdraw"`
	RolledForward      bool       `db:"rolled_forward" json:"rolled_forward"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}
