package dto

import "github.com/noah-isme/tutor-shift-api/internal/models"

// DailyGridView is the rendered grid of one date.
type DailyGridView struct {
	Date   string         `json:"date"`
	Closed bool           `json:"closed"`
	Cells  []GridCellView `json:"cells"`
}

// GridCellView is one (timeslot, room) cell with its bound lessons and teacher.
type GridCellView struct {
	CellID   int64             `json:"cell_id"`
	Timeslot int               `json:"timeslot"`
	Room     int               `json:"room"`
	Lessons  [4]*LessonView    `json:"lessons"`
	Teacher  *TeacherShiftView `json:"teacher"`
}

// LessonView summarises a bound occurrence.
type LessonView struct {
	OccurrenceID int64  `json:"occurrence_id"`
	PersonID     int64  `json:"person_id"`
	Subject      string `json:"subject"`
	Grade        int    `json:"grade"`
	GradeLabel   string `json:"grade_label"`
	Regular      bool   `json:"regular"`
	Temporary    bool   `json:"temporary"`
	Rescheduled  bool   `json:"rescheduled"`
	Intensive    bool   `json:"intensive"`
}

// TeacherShiftView summarises a bound teacher shift.
type TeacherShiftView struct {
	ShiftID   int64 `json:"shift_id"`
	TeacherID int64 `json:"teacher_id"`
	Fixed     bool  `json:"fixed"`
}

// EnsureResult reports what an ensure/repair pass changed.
type EnsureResult struct {
	Date         string `json:"date"`
	CellsCreated int    `json:"cells_created"`
	Repaired     int    `json:"repaired"`
	Unplaced     int    `json:"unplaced"`
}

// LessonCountResponse compares delivered lessons with the theoretical maximum for a month.
type LessonCountResponse struct {
	PersonID       int64    `json:"person_id"`
	PersonName     string   `json:"person_name"`
	Month          string   `json:"month"`
	Actual         int      `json:"actual"`
	TheoreticalMax int      `json:"theoretical_max"`
	Dates          []string `json:"dates"`
}

// TemplateListResponse lists template cells of a year tag.
type TemplateListResponse struct {
	YearTag models.YearTag            `json:"year_tag"`
	Cells   []models.GridTemplateCell `json:"cells"`
}
