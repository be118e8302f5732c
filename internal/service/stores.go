package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-shift-api/internal/models"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
	"github.com/noah-isme/tutor-shift-api/pkg/fiscal"
)

// transactor runs a unit of work in one database transaction.
type transactor interface {
	WithinTx(ctx context.Context, fn func(exec sqlx.ExtContext) error) error
}

type personStore interface {
	Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Person, error)
	ListEnrolled(ctx context.Context, exec sqlx.ExtContext) ([]models.Person, error)
	Update(ctx context.Context, exec sqlx.ExtContext, person *models.Person) error
}

type teacherStore interface {
	Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Teacher, error)
	ListActive(ctx context.Context, exec sqlx.ExtContext) ([]models.Teacher, error)
}

type lessonAssignmentStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyLessonAssignment) error
	Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.WeeklyLessonAssignment, error)
	Update(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyLessonAssignment) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
	List(ctx context.Context, exec sqlx.ExtContext, filter models.LessonAssignmentFilter) ([]models.WeeklyLessonAssignment, int, error)
	ListOverlapping(ctx context.Context, exec sqlx.ExtContext, personID int64, start, end time.Time) ([]models.WeeklyLessonAssignment, error)
	ListEndingOn(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]models.WeeklyLessonAssignment, error)
	ListActiveOn(ctx context.Context, exec sqlx.ExtContext, weekday int, date time.Time) ([]models.WeeklyLessonAssignment, error)
}

type teacherAssignmentStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyTeacherAssignment) error
	Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.WeeklyTeacherAssignment, error)
	Update(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyTeacherAssignment) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
	List(ctx context.Context, exec sqlx.ExtContext, filter models.TeacherAssignmentFilter) ([]models.WeeklyTeacherAssignment, int, error)
	ListOverlapping(ctx context.Context, exec sqlx.ExtContext, teacherID int64, start, end time.Time) ([]models.WeeklyTeacherAssignment, error)
	ListEndingOn(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]models.WeeklyTeacherAssignment, error)
	ListActiveOn(ctx context.Context, exec sqlx.ExtContext, weekday int, date time.Time) ([]models.WeeklyTeacherAssignment, error)
	CreateTemporary(ctx context.Context, exec sqlx.ExtContext, assignment *models.TemporaryTeacherAssignment) error
	DeleteTemporary(ctx context.Context, exec sqlx.ExtContext, id int64) error
	DeleteTemporaryByDate(ctx context.Context, exec sqlx.ExtContext, date time.Time) (int64, error)
}

type lessonOccurrenceStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, occurrence *models.LessonOccurrence) error
	Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.LessonOccurrence, error)
	Update(ctx context.Context, exec sqlx.ExtContext, occurrence *models.LessonOccurrence) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
	ListByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) ([]models.LessonOccurrence, error)
	ListDatesForAssignment(ctx context.Context, exec sqlx.ExtContext, assignmentID int64, start, end time.Time) ([]time.Time, error)
	FindBindable(ctx context.Context, exec sqlx.ExtContext, assignmentID int64, date time.Time) (*models.LessonOccurrence, error)
	ListUnbound(ctx context.Context, exec sqlx.ExtContext, date time.Time, includeRegular bool) ([]models.LessonOccurrence, error)
	DeleteForAssignmentFrom(ctx context.Context, exec sqlx.ExtContext, assignmentID int64, from time.Time) ([]int64, error)
	DeleteByDate(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]int64, error)
	CountForIntensive(ctx context.Context, exec sqlx.ExtContext, intensiveAssignmentID int64) (int, error)
	ListByPerson(ctx context.Context, exec sqlx.ExtContext, personID int64, start, end time.Time) ([]models.LessonOccurrence, error)
	SetReported(ctx context.Context, exec sqlx.ExtContext, id int64, reported bool) error
}

type teacherShiftStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, shift *models.TeacherShiftOccurrence) error
	Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.TeacherShiftOccurrence, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
	ListByIDs(ctx context.Context, exec sqlx.ExtContext, ids []int64) ([]models.TeacherShiftOccurrence, error)
	ListDatesForAssignment(ctx context.Context, exec sqlx.ExtContext, assignmentID int64, start, end time.Time) ([]time.Time, error)
	FindFixed(ctx context.Context, exec sqlx.ExtContext, assignmentID int64, date time.Time) (*models.TeacherShiftOccurrence, error)
	ListUnbound(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]models.TeacherShiftOccurrence, error)
	DeleteForAssignmentFrom(ctx context.Context, exec sqlx.ExtContext, assignmentID int64, from time.Time) ([]int64, error)
	DeleteByDate(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]int64, error)
	ListByTeacher(ctx context.Context, exec sqlx.ExtContext, teacherID int64, start, end time.Time) ([]models.TeacherShiftOccurrence, error)
}

type gridTemplateStore interface {
	CreateEmpty(ctx context.Context, exec sqlx.ExtContext, tag models.YearTag, weekdays, timeslots, rooms []int) (int, error)
	List(ctx context.Context, exec sqlx.ExtContext, tag models.YearTag, weekday *int) ([]models.GridTemplateCell, error)
	ListSlot(ctx context.Context, exec sqlx.ExtContext, tag models.YearTag, weekday, timeslot int) ([]models.GridTemplateCell, error)
	Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.GridTemplateCell, error)
	FindByLessonAssignment(ctx context.Context, exec sqlx.ExtContext, assignmentID int64) (*models.GridTemplateCell, error)
	FindByTeacherAssignment(ctx context.Context, exec sqlx.ExtContext, assignmentID int64) (*models.GridTemplateCell, error)
	SaveSlots(ctx context.Context, exec sqlx.ExtContext, cell *models.GridTemplateCell) error
	DeleteByYear(ctx context.Context, exec sqlx.ExtContext, tag models.YearTag) (int, error)
	Retag(ctx context.Context, exec sqlx.ExtContext, from, to models.YearTag) (int, error)
}

type dailyShiftStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, cell *models.DailyShiftCell) (bool, error)
	ListByDate(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]models.DailyShiftCell, error)
	Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.DailyShiftCell, error)
	Find(ctx context.Context, exec sqlx.ExtContext, date time.Time, timeslot, room int) (*models.DailyShiftCell, error)
	FindByOccurrence(ctx context.Context, exec sqlx.ExtContext, occurrenceID int64) (*models.DailyShiftCell, error)
	SaveSlots(ctx context.Context, exec sqlx.ExtContext, cell *models.DailyShiftCell) error
	DetachOccurrences(ctx context.Context, exec sqlx.ExtContext, ids []int64) error
	DetachTeacherShifts(ctx context.Context, exec sqlx.ExtContext, ids []int64) error
	DeleteByDate(ctx context.Context, exec sqlx.ExtContext, date time.Time) (int, error)
	DeleteTimeslotsInRange(ctx context.Context, exec sqlx.ExtContext, start, end time.Time, timeslots []int) (int, error)
}

type calendarStore interface {
	List(ctx context.Context, exec sqlx.ExtContext, filter models.CalendarFilter) ([]models.CalendarEvent, error)
	Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.CalendarEvent, error)
	Create(ctx context.Context, exec sqlx.ExtContext, event *models.CalendarEvent) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
	IsClosure(ctx context.Context, exec sqlx.ExtContext, date time.Time) (bool, error)
	ListClosureDates(ctx context.Context, exec sqlx.ExtContext, start, end time.Time) ([]time.Time, error)
	DeleteNonClosureOn(ctx context.Context, exec sqlx.ExtContext, date time.Time) (int64, error)
	DeleteFixedInRange(ctx context.Context, exec sqlx.ExtContext, start, end time.Time) (int64, error)
}

type intensiveStore interface {
	CreatePeriod(ctx context.Context, exec sqlx.ExtContext, period *models.IntensivePeriod) error
	GetPeriod(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.IntensivePeriod, error)
	DeletePeriod(ctx context.Context, exec sqlx.ExtContext, id int64) error
	ListOverlapping(ctx context.Context, exec sqlx.ExtContext, start, end time.Time) ([]models.IntensivePeriod, error)
	FindPeriodOn(ctx context.Context, exec sqlx.ExtContext, date time.Time) (*models.IntensivePeriod, error)
	CreateAssignment(ctx context.Context, exec sqlx.ExtContext, assignment *models.IntensiveAssignment) error
	GetAssignment(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.IntensiveAssignment, error)
	EnsurePersonRequest(ctx context.Context, exec sqlx.ExtContext, request models.IntensivePersonRequest) (bool, error)
	SetPersonAvailability(ctx context.Context, exec sqlx.ExtContext, request models.IntensivePersonRequest) (bool, error)
	EnsureTeacherRequest(ctx context.Context, exec sqlx.ExtContext, request models.IntensiveTeacherRequest) (bool, error)
	SetTeacherAvailability(ctx context.Context, exec sqlx.ExtContext, request models.IntensiveTeacherRequest) (bool, error)
}

type vocabularyStore interface {
	ResetAll(ctx context.Context, exec sqlx.ExtContext) (int, error)
}

type rolloverRunStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, run *models.RolloverRun) error
	Finish(ctx context.Context, exec sqlx.ExtContext, run *models.RolloverRun) error
	HasCompleted(ctx context.Context, exec sqlx.ExtContext, fiscalYear int) (bool, error)
	List(ctx context.Context, exec sqlx.ExtContext, limit int) ([]models.RolloverRun, error)
}

// Stores groups the persistence dependencies shared by the scheduling services.
type Stores struct {
	Persons            personStore
	Teachers           teacherStore
	LessonAssignments  lessonAssignmentStore
	TeacherAssignments teacherAssignmentStore
	Lessons            lessonOccurrenceStore
	TeacherShifts      teacherShiftStore
	Templates          gridTemplateStore
	DailyCells         dailyShiftStore
	Calendar           calendarStore
	Intensive          intensiveStore
	Vocabulary         vocabularyStore
	RolloverRuns       rolloverRunStore
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// lookupError maps a repository read failure to NOT_FOUND or INTERNAL_ERROR.
func lookupError(err error, entity string) error {
	if isNoRows(err) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return internalError(err, "failed to load "+entity)
}

func internalError(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func parseDate(raw, field string) (time.Time, error) {
	d, err := fiscal.ParseDay(raw)
	if err != nil {
		return time.Time{}, validationError(err, "invalid "+field)
	}
	return d, nil
}
