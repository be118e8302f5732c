package dto

import "github.com/noah-isme/tutor-shift-api/internal/models"

// CreateLessonAssignmentRequest registers a recurring weekly lesson. EndDate defaults to the
// fiscal end of StartDate.
type CreateLessonAssignmentRequest struct {
	PersonID  int64  `json:"person_id" validate:"required,min=1"`
	Subject   string `json:"subject" validate:"required,max=64"`
	Weekday   int    `json:"weekday" validate:"required,weekday"`
	Timeslot  int    `json:"timeslot" validate:"required,min=1"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// CreateTeacherAssignmentRequest registers a recurring weekly teacher shift.
type CreateTeacherAssignmentRequest struct {
	TeacherID int64  `json:"teacher_id" validate:"required,min=1"`
	Weekday   int    `json:"weekday" validate:"required,weekday"`
	Timeslot  int    `json:"timeslot" validate:"required,min=1"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// MoveAssignmentRequest names the weekday and timeslot of a replacement assignment.
type MoveAssignmentRequest struct {
	Weekday  int `json:"weekday" validate:"required,weekday"`
	Timeslot int `json:"timeslot" validate:"required,min=1"`
}

// DeclareClosureRequest marks a date as closed.
type DeclareClosureRequest struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Title string `json:"title" validate:"required,max=128"`
}

// CreateIntensivePeriodRequest opens a seasonal intensive course window.
type CreateIntensivePeriodRequest struct {
	Name      string `json:"name" validate:"required,max=128"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Extended  bool   `json:"extended"`
}

// CreateIntensiveAssignmentRequest enrols a person in an intensive course.
type CreateIntensiveAssignmentRequest struct {
	PersonID int64  `json:"person_id" validate:"required,min=1"`
	Subject  string `json:"subject" validate:"required,max=64"`
	Quota    int    `json:"quota" validate:"min=0"`
}

// AvailabilityToggle flips one (date, timeslot) request row.
type AvailabilityToggle struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Timeslot  int    `json:"timeslot" validate:"required,min=1"`
	Available bool   `json:"available"`
}

// UpdatePersonRequestsRequest toggles a person's intensive availability.
type UpdatePersonRequestsRequest struct {
	PersonID int64                `json:"person_id" validate:"required,min=1"`
	Toggles  []AvailabilityToggle `json:"toggles" validate:"required,min=1,dive"`
}

// UpdateTeacherRequestsRequest toggles a teacher's intensive availability.
type UpdateTeacherRequestsRequest struct {
	TeacherID int64                `json:"teacher_id" validate:"required,min=1"`
	Toggles   []AvailabilityToggle `json:"toggles" validate:"required,min=1,dive"`
}

// MarkAbsentRequest flags an occurrence as absent.
type MarkAbsentRequest struct {
	Unauthorized bool `json:"unauthorized"`
}

// RescheduleRequest places a lesson into a daily cell. Exactly one of OccurrenceID,
// IntensiveAssignmentID or PersonID (with Subject) selects the mode.
type RescheduleRequest struct {
	Date                  string `json:"date" validate:"required,datetime=2006-01-02"`
	Room                  int    `json:"room" validate:"required,min=1"`
	Timeslot              int    `json:"timeslot" validate:"required,min=1"`
	OccurrenceID          *int64 `json:"occurrence_id" validate:"omitempty,min=1"`
	IntensiveAssignmentID *int64 `json:"intensive_assignment_id" validate:"omitempty,min=1"`
	PersonID              *int64 `json:"person_id" validate:"omitempty,min=1"`
	Subject               string `json:"subject" validate:"required_with=PersonID,max=64"`
}

// AddTeacherShiftRequest staffs a cell's teacher slot for one day.
type AddTeacherShiftRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Room      int    `json:"room" validate:"required,min=1"`
	Timeslot  int    `json:"timeslot" validate:"required,min=1"`
	TeacherID int64  `json:"teacher_id" validate:"required,min=1"`
}

// SaveSlotsRequest persists operator edits of a grid as cell-id + slot pairs.
type SaveSlotsRequest struct {
	Pairs []models.SlotPair `json:"pairs" validate:"required,min=1,dive"`
}

// SaveTemplateRequest persists template edits for one year tag.
type SaveTemplateRequest struct {
	YearTag models.YearTag    `json:"year_tag" validate:"required,yeartag"`
	Pairs   []models.SlotPair `json:"pairs" validate:"required,min=1,dive"`
}

// InitializeTemplateRequest creates the empty template cells of a year tag.
type InitializeTemplateRequest struct {
	YearTag models.YearTag `json:"year_tag" validate:"required,yeartag"`
}

// SetReportedRequest toggles the billing flag of an occurrence.
type SetReportedRequest struct {
	Reported *bool `json:"reported" validate:"required"`
}

// CreateFeedRequest asks for a signed calendar feed URL.
type CreateFeedRequest struct {
	Kind string `json:"kind" validate:"required,oneof=person teacher"`
	ID   int64  `json:"id" validate:"required,min=1"`
}

// FeedURLResponse carries a signed feed link.
type FeedURLResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}
