package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// RolloverStatus tracks the lifecycle of a fiscal rollover run.
type RolloverStatus string

const (
	RolloverStatusRunning   RolloverStatus = "RUNNING"
	RolloverStatusCompleted RolloverStatus = "COMPLETED"
	RolloverStatusFailed    RolloverStatus = "FAILED"
)

// RolloverRun records one execution of the yearly rollover.
type RolloverRun struct {
	ID         int64          `db:"id" json:"id"`
	FiscalYear int            `db:"fiscal_year" json:"fiscal_year"`
	Status     RolloverStatus `db:"status" json:"status"`
	Summary    types.JSONText `db:"summary" json:"summary,omitempty"`
	Error      *string        `db:"error" json:"error,omitempty"`
	StartedAt  time.Time      `db:"started_at" json:"started_at"`
	FinishedAt *time.Time     `db:"finished_at" json:"finished_at,omitempty"`
}

// RolloverSummary counts what a rollover run touched.
type RolloverSummary struct {
	FiscalYear               int `json:"fiscal_year"`
	TemplateCellsDeleted     int `json:"template_cells_deleted"`
	TemplateCellsCreated     int `json:"template_cells_created"`
	LessonAssignmentsReset   int `json:"lesson_assignments_reset"`
	LessonAssignmentsCloned  int `json:"lesson_assignments_cloned"`
	TeacherAssignmentsReset  int `json:"teacher_assignments_reset"`
	TeacherAssignmentsCloned int `json:"teacher_assignments_cloned"`
	OccurrencesCreated       int `json:"occurrences_created"`
	PersonsWithdrawn         int `json:"persons_withdrawn"`
	PersonsRegraded          int `json:"persons_regraded"`
	VocabularyTestsReset     int `json:"vocabulary_tests_reset"`
}
