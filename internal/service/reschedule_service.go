package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/internal/models"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
	"github.com/noah-isme/tutor-shift-api/pkg/fiscal"
)

// RescheduleService records absences and places makeup, temporary and intensive lessons as
// well as ad-hoc teacher shifts into daily grids.
type RescheduleService struct {
	stores    Stores
	tx        transactor
	grids     *DailyGridService
	clock     Clock
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRescheduleService constructs the service.
func NewRescheduleService(stores Stores, tx transactor, grids *DailyGridService, clock Clock, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *RescheduleService {
	if clock == nil {
		clock = SystemClock{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RescheduleService{
		stores:    stores,
		tx:        tx,
		grids:     grids,
		clock:     clock,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// MarkAbsent detaches the occurrence from its cell and records the absence. Authorized
// absences from intensive lessons delete the occurrence so the quota can be reused.
func (s *RescheduleService) MarkAbsent(ctx context.Context, occurrenceID int64, unauthorized bool) (*models.LessonOccurrence, error) {
	var result *models.LessonOccurrence
	var affected time.Time
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		occurrence, err := s.stores.Lessons.Get(ctx, exec, occurrenceID)
		if err != nil {
			return lookupError(err, "lesson occurrence")
		}
		affected = occurrence.EffectiveDate()

		if err := s.stores.DailyCells.DetachOccurrences(ctx, exec, []int64{occurrence.ID}); err != nil {
			return internalError(err, "failed to detach occurrence")
		}

		if occurrence.IsIntensive() && !unauthorized {
			if err := s.stores.Lessons.Delete(ctx, exec, occurrence.ID); err != nil {
				return internalError(err, "failed to delete intensive occurrence")
			}
			return nil
		}

		occurrence.IsAbsent = true
		occurrence.IsUnauthorizedAbsence = unauthorized
		occurrence.IsRescheduled = false
		occurrence.RescheduledDate = nil
		occurrence.RescheduledTimeslot = nil
		if err := s.stores.Lessons.Update(ctx, exec, occurrence); err != nil {
			return internalError(err, "failed to mark absence")
		}
		result = occurrence
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateDays(ctx, affected)
	s.logger.Info("absence recorded",
		zap.Int64("occurrence_id", occurrenceID),
		zap.Bool("unauthorized", unauthorized),
		zap.Bool("deleted", result == nil),
	)
	return result, nil
}

// Reschedule places a lesson into the (date, room, timeslot) cell. The request selects one of
// three modes: a new temporary lesson for a person, a makeup for an authorized absence, or an
// intensive lesson drawn from an intensive assignment.
func (s *RescheduleService) Reschedule(ctx context.Context, req dto.RescheduleRequest) (*models.LessonOccurrence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid reschedule payload")
	}
	modes := 0
	for _, set := range []bool{req.OccurrenceID != nil, req.IntensiveAssignmentID != nil, req.PersonID != nil} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of occurrence_id, intensive_assignment_id or person_id is required")
	}
	date, err := parseDate(req.Date, "date")
	if err != nil {
		return nil, err
	}

	var result *models.LessonOccurrence
	var touched []time.Time
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		cell, slot, err := s.freeLessonSlot(ctx, exec, date, req.Room, req.Timeslot)
		if err != nil {
			return err
		}

		var occurrence *models.LessonOccurrence
		switch {
		case req.PersonID != nil:
			occurrence, err = s.temporaryLesson(ctx, exec, *req.PersonID, req.Subject, date, req.Timeslot)
		case req.OccurrenceID != nil:
			occurrence, err = s.makeupLesson(ctx, exec, *req.OccurrenceID, date, req.Timeslot)
		default:
			occurrence, err = s.intensiveLesson(ctx, exec, *req.IntensiveAssignmentID, date, req.Timeslot)
		}
		if err != nil {
			return err
		}

		occurrenceID := occurrence.ID
		cell.OccurrenceSlots[slot] = &occurrenceID
		if err := s.stores.DailyCells.SaveSlots(ctx, exec, cell); err != nil {
			return internalError(err, "failed to bind lesson")
		}
		result = occurrence
		touched = append(touched, date, occurrence.Date)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateDays(ctx, touched...)
	s.logger.Info("lesson rescheduled",
		zap.Int64("occurrence_id", result.ID),
		zap.String("date", date.Format(fiscal.DateLayout)),
		zap.Int("room", req.Room),
		zap.Int("timeslot", req.Timeslot),
	)
	return result, nil
}

// freeLessonSlot returns the target cell and its first free lesson slot.
func (s *RescheduleService) freeLessonSlot(ctx context.Context, exec sqlx.ExtContext, date time.Time, room, timeslot int) (*models.DailyShiftCell, int, error) {
	cell, err := s.targetCell(ctx, exec, date, room, timeslot)
	if err != nil {
		return nil, -1, err
	}
	slot := cell.OccurrenceSlots.FirstFree()
	if slot < 0 {
		s.metrics.RecordCapacityRejection("reschedule")
		return nil, -1, appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("room %d timeslot %d on %s is full", room, timeslot, date.Format(fiscal.DateLayout)))
	}
	return cell, slot, nil
}

func (s *RescheduleService) targetCell(ctx context.Context, exec sqlx.ExtContext, date time.Time, room, timeslot int) (*models.DailyShiftCell, error) {
	if _, err := s.grids.requireGrid(ctx, exec, date); err != nil {
		return nil, err
	}
	cell, err := s.stores.DailyCells.Find(ctx, exec, date, timeslot, room)
	if isNoRows(err) {
		return nil, appErrors.Clone(appErrors.ErrNotFound,
			fmt.Sprintf("no cell for room %d timeslot %d on %s", room, timeslot, date.Format(fiscal.DateLayout)))
	}
	if err != nil {
		return nil, internalError(err, "failed to load daily cell")
	}
	return cell, nil
}

func (s *RescheduleService) temporaryLesson(ctx context.Context, exec sqlx.ExtContext, personID int64, subject string, date time.Time, timeslot int) (*models.LessonOccurrence, error) {
	person, err := s.stores.Persons.Get(ctx, exec, personID)
	if err != nil {
		return nil, lookupError(err, "person")
	}
	occurrence := &models.LessonOccurrence{
		PersonID:    person.ID,
		Subject:     subject,
		Grade:       person.Grade,
		Date:        date,
		Timeslot:    timeslot,
		IsTemporary: true,
	}
	if err := s.stores.Lessons.Create(ctx, exec, occurrence); err != nil {
		return nil, internalError(err, "failed to create temporary lesson")
	}
	return occurrence, nil
}

func (s *RescheduleService) makeupLesson(ctx context.Context, exec sqlx.ExtContext, occurrenceID int64, date time.Time, timeslot int) (*models.LessonOccurrence, error) {
	occurrence, err := s.stores.Lessons.Get(ctx, exec, occurrenceID)
	if err != nil {
		return nil, lookupError(err, "lesson occurrence")
	}
	if !occurrence.IsAbsent {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only absent lessons can be rescheduled")
	}
	if occurrence.IsUnauthorizedAbsence {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "unauthorized absences cannot be rescheduled")
	}
	person, err := s.stores.Persons.Get(ctx, exec, occurrence.PersonID)
	if err != nil {
		return nil, lookupError(err, "person")
	}

	rescheduledDate := date
	rescheduledTimeslot := timeslot
	occurrence.Grade = person.Grade
	occurrence.RescheduledDate = &rescheduledDate
	occurrence.RescheduledTimeslot = &rescheduledTimeslot
	occurrence.IsAbsent = false
	occurrence.IsRescheduled = true
	if err := s.stores.Lessons.Update(ctx, exec, occurrence); err != nil {
		return nil, internalError(err, "failed to reschedule lesson")
	}
	return occurrence, nil
}

func (s *RescheduleService) intensiveLesson(ctx context.Context, exec sqlx.ExtContext, assignmentID int64, date time.Time, timeslot int) (*models.LessonOccurrence, error) {
	assignment, err := s.stores.Intensive.GetAssignment(ctx, exec, assignmentID)
	if err != nil {
		return nil, lookupError(err, "intensive assignment")
	}
	booked, err := s.stores.Lessons.CountForIntensive(ctx, exec, assignment.ID)
	if err != nil {
		return nil, internalError(err, "failed to count intensive lessons")
	}
	if booked >= assignment.Quota {
		s.metrics.RecordCapacityRejection("intensive_quota")
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("intensive assignment %d has used all %d lessons", assignment.ID, assignment.Quota))
	}
	intensiveID := assignment.ID
	occurrence := &models.LessonOccurrence{
		IntensiveAssignmentID: &intensiveID,
		PersonID:              assignment.PersonID,
		Subject:               assignment.Subject,
		Grade:                 s.intensiveGrade(assignment.Grade, date),
		Date:                  date,
		Timeslot:              timeslot,
	}
	if err := s.stores.Lessons.Create(ctx, exec, occurrence); err != nil {
		return nil, internalError(err, "failed to create intensive lesson")
	}
	return occurrence, nil
}

// intensiveGrade advances the tier for lessons that fall into the next fiscal year, measured
// from the first day of the current month.
func (s *RescheduleService) intensiveGrade(grade int, date time.Time) int {
	monthStart, _ := fiscal.MonthBounds(s.clock.Now())
	_, fiscalEnd := fiscal.ShiftYearBounds(monthStart)
	if date.After(fiscalEnd) {
		return fiscal.NextTier(grade)
	}
	return grade
}

// AddTeacherToShift staffs the teacher slot of a cell with an ad-hoc one-day shift.
func (s *RescheduleService) AddTeacherToShift(ctx context.Context, req dto.AddTeacherShiftRequest) (*models.TeacherShiftOccurrence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid teacher shift payload")
	}
	date, err := parseDate(req.Date, "date")
	if err != nil {
		return nil, err
	}

	var result *models.TeacherShiftOccurrence
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		cell, err := s.targetCell(ctx, exec, date, req.Room, req.Timeslot)
		if err != nil {
			return err
		}
		if cell.TeacherSlot != nil {
			s.metrics.RecordCapacityRejection("add_teacher")
			return appErrors.Clone(appErrors.ErrCapacityExceeded,
				fmt.Sprintf("room %d timeslot %d already has a teacher", req.Room, req.Timeslot))
		}
		if _, err := s.stores.Teachers.Get(ctx, exec, req.TeacherID); err != nil {
			return lookupError(err, "teacher")
		}

		temporary := &models.TemporaryTeacherAssignment{TeacherID: req.TeacherID, Date: date, Timeslot: req.Timeslot}
		if err := s.stores.TeacherAssignments.CreateTemporary(ctx, exec, temporary); err != nil {
			return internalError(err, "failed to create temporary teacher assignment")
		}
		temporaryID := temporary.ID
		shift := &models.TeacherShiftOccurrence{
			TemporaryAssignmentID: &temporaryID,
			TeacherID:             req.TeacherID,
			Date:                  date,
			Timeslot:              req.Timeslot,
		}
		if err := s.stores.TeacherShifts.Create(ctx, exec, shift); err != nil {
			return internalError(err, "failed to create teacher shift")
		}
		shiftID := shift.ID
		cell.TeacherSlot = &shiftID
		if err := s.stores.DailyCells.SaveSlots(ctx, exec, cell); err != nil {
			return internalError(err, "failed to bind teacher shift")
		}
		result = shift
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateDays(ctx, date)
	return result, nil
}

// RemoveTeacherFromShift clears the teacher slot of a cell. Ad-hoc shifts are deleted with
// their temporary assignment; fixed shifts stay unbound.
func (s *RescheduleService) RemoveTeacherFromShift(ctx context.Context, cellID int64) error {
	var date time.Time
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		cell, err := s.stores.DailyCells.Get(ctx, exec, cellID)
		if err != nil {
			return lookupError(err, "daily cell")
		}
		if cell.TeacherSlot == nil {
			return appErrors.Clone(appErrors.ErrNotFound, "cell has no teacher")
		}
		date = cell.Date
		shift, err := s.stores.TeacherShifts.Get(ctx, exec, *cell.TeacherSlot)
		if err != nil {
			return lookupError(err, "teacher shift")
		}

		cell.TeacherSlot = nil
		if err := s.stores.DailyCells.SaveSlots(ctx, exec, cell); err != nil {
			return internalError(err, "failed to unbind teacher shift")
		}
		if shift.IsFixed {
			return nil
		}
		if err := s.stores.TeacherShifts.Delete(ctx, exec, shift.ID); err != nil {
			return internalError(err, "failed to delete teacher shift")
		}
		if shift.TemporaryAssignmentID != nil {
			if err := s.stores.TeacherAssignments.DeleteTemporary(ctx, exec, *shift.TemporaryAssignmentID); err != nil {
				return internalError(err, "failed to delete temporary teacher assignment")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateDays(ctx, date)
	return nil
}
