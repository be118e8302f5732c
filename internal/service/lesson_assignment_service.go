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

// LessonAssignmentService manages recurring weekly lessons. Assignments are never edited in
// place: a change ends the assignment and starts a replacement.
type LessonAssignmentService struct {
	stores       Stores
	tx           transactor
	materializer *Materializer
	layout       GridLayout
	clock        Clock
	cache        *CacheService
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewLessonAssignmentService constructs the service.
func NewLessonAssignmentService(stores Stores, tx transactor, materializer *Materializer, layout GridLayout, clock Clock, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LessonAssignmentService {
	if clock == nil {
		clock = SystemClock{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonAssignmentService{
		stores:       stores,
		tx:           tx,
		materializer: materializer,
		layout:       layout,
		clock:        clock,
		cache:        cache,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
	}
}

// Get returns one assignment.
func (s *LessonAssignmentService) Get(ctx context.Context, id int64) (*models.WeeklyLessonAssignment, error) {
	assignment, err := s.stores.LessonAssignments.Get(ctx, nil, id)
	if err != nil {
		return nil, lookupError(err, "lesson assignment")
	}
	return assignment, nil
}

// List returns a page of assignments.
func (s *LessonAssignmentService) List(ctx context.Context, filter models.LessonAssignmentFilter) ([]models.WeeklyLessonAssignment, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	assignments, total, err := s.stores.LessonAssignments.List(ctx, nil, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list lesson assignments")
	}
	return assignments, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Create registers a new weekly lesson with the person's current grade and materializes it.
func (s *LessonAssignmentService) Create(ctx context.Context, req dto.CreateLessonAssignmentRequest) (*models.WeeklyLessonAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid lesson assignment payload")
	}
	if !s.layout.isRegularTimeslot(req.Timeslot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timeslot %d", req.Timeslot))
	}
	start, end, err := assignmentRange(s.clock, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	var created *models.WeeklyLessonAssignment
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		person, err := s.stores.Persons.Get(ctx, exec, req.PersonID)
		if err != nil {
			return lookupError(err, "person")
		}
		if person.Withdrawn {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "person has withdrawn")
		}
		created, err = s.create(ctx, exec, person, req.Subject, req.Weekday, req.Timeslot, person.Grade, start, end, yearTagFor(s.clock, start))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAllDays(ctx)
	return created, nil
}

// Replace ends the assignment as of today and starts a new one on the given weekday and
// timeslot running to the old end date.
func (s *LessonAssignmentService) Replace(ctx context.Context, id int64, req dto.MoveAssignmentRequest) (*models.WeeklyLessonAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid replacement payload")
	}
	if !s.layout.isRegularTimeslot(req.Timeslot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timeslot %d", req.Timeslot))
	}

	var replacement *models.WeeklyLessonAssignment
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		current, err := s.stores.LessonAssignments.Get(ctx, exec, id)
		if err != nil {
			return lookupError(err, "lesson assignment")
		}
		if err := requireActive(s.clock, current.EndDate); err != nil {
			return err
		}
		person, err := s.stores.Persons.Get(ctx, exec, current.PersonID)
		if err != nil {
			return lookupError(err, "person")
		}

		from := today(s.clock)
		start := laterOf(from, current.StartDate)
		end := current.EndDate
		if err := s.end(ctx, exec, current, from); err != nil {
			return err
		}
		replacement, err = s.create(ctx, exec, person, current.Subject, req.Weekday, req.Timeslot, person.Grade, start, end, yearTagFor(s.clock, start))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAllDays(ctx)
	s.logger.Info("lesson assignment replaced", zap.Int64("assignment_id", id), zap.Int64("replacement_id", replacement.ID))
	return replacement, nil
}

// Cancel ends the assignment as of today.
func (s *LessonAssignmentService) Cancel(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		current, err := s.stores.LessonAssignments.Get(ctx, exec, id)
		if err != nil {
			return lookupError(err, "lesson assignment")
		}
		if err := requireActive(s.clock, current.EndDate); err != nil {
			return err
		}
		return s.end(ctx, exec, current, today(s.clock))
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateAllDays(ctx)
	s.logger.Info("lesson assignment cancelled", zap.Int64("assignment_id", id))
	return nil
}

// ContinueNextYear clones the assignment into next fiscal year with the tier advanced.
func (s *LessonAssignmentService) ContinueNextYear(ctx context.Context, id int64) (*models.WeeklyLessonAssignment, error) {
	return s.carryOver(ctx, id, nil)
}

// ChangeNextYear starts next fiscal year's lesson on a different weekday and timeslot.
func (s *LessonAssignmentService) ChangeNextYear(ctx context.Context, id int64, req dto.MoveAssignmentRequest) (*models.WeeklyLessonAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid change payload")
	}
	if !s.layout.isRegularTimeslot(req.Timeslot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timeslot %d", req.Timeslot))
	}
	return s.carryOver(ctx, id, &req)
}

// EndAtYearEnd records that the assignment stops with the current fiscal year so the
// rollover does not clone it.
func (s *LessonAssignmentService) EndAtYearEnd(ctx context.Context, id int64) (*models.WeeklyLessonAssignment, error) {
	var result *models.WeeklyLessonAssignment
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		current, err := s.yearEndCandidate(ctx, exec, id)
		if err != nil {
			return err
		}
		if err := s.markRolledForward(ctx, exec, current); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LessonAssignmentService) carryOver(ctx context.Context, id int64, change *dto.MoveAssignmentRequest) (*models.WeeklyLessonAssignment, error) {
	var clone *models.WeeklyLessonAssignment
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		current, err := s.yearEndCandidate(ctx, exec, id)
		if err != nil {
			return err
		}
		person, err := s.stores.Persons.Get(ctx, exec, current.PersonID)
		if err != nil {
			return lookupError(err, "person")
		}

		weekday, timeslot, grade := current.Weekday, current.Timeslot, fiscal.NextTier(current.Grade)
		if change != nil {
			weekday, timeslot, grade = change.Weekday, change.Timeslot, fiscal.NextTier(person.Grade)
		}
		start, end := fiscal.NextShiftYearBounds(s.clock.Now())
		clone, err = s.create(ctx, exec, person, current.Subject, weekday, timeslot, grade, start, end, models.YearNext)
		if err != nil {
			return err
		}
		return s.markRolledForward(ctx, exec, current)
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAllDays(ctx)
	s.logger.Info("lesson assignment carried over", zap.Int64("assignment_id", id), zap.Int64("clone_id", clone.ID))
	return clone, nil
}

func (s *LessonAssignmentService) yearEndCandidate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.WeeklyLessonAssignment, error) {
	current, err := s.stores.LessonAssignments.Get(ctx, exec, id)
	if err != nil {
		return nil, lookupError(err, "lesson assignment")
	}
	if current.RolledForward {
		return nil, appErrors.Clone(appErrors.ErrDuplicateSlot, "assignment already has a year-end decision")
	}
	if err := requireYearEnd(s.clock, current.EndDate); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *LessonAssignmentService) markRolledForward(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyLessonAssignment) error {
	assignment.RolledForward = true
	if err := s.stores.LessonAssignments.Update(ctx, exec, assignment); err != nil {
		return internalError(err, "failed to update lesson assignment")
	}
	person, err := s.stores.Persons.Get(ctx, exec, assignment.PersonID)
	if err != nil {
		return lookupError(err, "person")
	}
	if person.RolledForward {
		return nil
	}
	person.RolledForward = true
	if err := s.stores.Persons.Update(ctx, exec, person); err != nil {
		return internalError(err, "failed to update person")
	}
	return nil
}

// checkConflicts rejects a range that repeats the person's weekday+timeslot or exceeds the
// concurrent assignment cap.
func (s *LessonAssignmentService) checkConflicts(ctx context.Context, exec sqlx.ExtContext, personID int64, weekday, timeslot int, start, end time.Time) error {
	existing, err := s.stores.LessonAssignments.ListOverlapping(ctx, exec, personID, start, end)
	if err != nil {
		return internalError(err, "failed to load lesson assignments")
	}
	for _, a := range existing {
		if a.Weekday == weekday && a.Timeslot == timeslot {
			return appErrors.Clone(appErrors.ErrDuplicateSlot,
				fmt.Sprintf("person already has a lesson on weekday %d timeslot %d", weekday, timeslot))
		}
	}
	if len(existing) >= s.layout.MaxConcurrent {
		s.metrics.RecordCapacityRejection("create_lesson_assignment")
		return appErrors.Clone(appErrors.ErrCapacityExceeded,
			fmt.Sprintf("person already has %d concurrent lessons", len(existing)))
	}
	return nil
}

func (s *LessonAssignmentService) create(ctx context.Context, exec sqlx.ExtContext, person *models.Person, subject string, weekday, timeslot, grade int, start, end time.Time, tag models.YearTag) (*models.WeeklyLessonAssignment, error) {
	if err := s.checkConflicts(ctx, exec, person.ID, weekday, timeslot, start, end); err != nil {
		return nil, err
	}
	assignment := &models.WeeklyLessonAssignment{
		PersonID:  person.ID,
		Subject:   subject,
		Weekday:   weekday,
		Timeslot:  timeslot,
		Grade:     grade,
		StartDate: start,
		EndDate:   end,
	}
	if err := s.stores.LessonAssignments.Create(ctx, exec, assignment); err != nil {
		return nil, internalError(err, "failed to create lesson assignment")
	}
	created, err := s.materializer.MaterializeLessons(ctx, exec, assignment, start, end, tag)
	if err != nil {
		return nil, err
	}
	s.logger.Info("lesson assignment created",
		zap.Int64("assignment_id", assignment.ID),
		zap.Int64("person_id", person.ID),
		zap.Int("weekday", weekday),
		zap.Int("timeslot", timeslot),
		zap.Int("occurrences", created),
	)
	return assignment, nil
}

// end removes the assignment's occurrences from from on, frees its template slot and
// shortens it to end the day before. An assignment left without days is deleted.
func (s *LessonAssignmentService) end(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyLessonAssignment, from time.Time) error {
	ids, err := s.stores.Lessons.DeleteForAssignmentFrom(ctx, exec, assignment.ID, from)
	if err != nil {
		return internalError(err, "failed to delete lesson occurrences")
	}
	if err := s.stores.DailyCells.DetachOccurrences(ctx, exec, ids); err != nil {
		return internalError(err, "failed to detach lesson occurrences")
	}
	if err := s.materializer.unbindLessonAssignment(ctx, exec, assignment.ID); err != nil {
		return err
	}

	if !from.After(assignment.StartDate) {
		if err := s.stores.LessonAssignments.Delete(ctx, exec, assignment.ID); err != nil {
			return internalError(err, "failed to delete lesson assignment")
		}
		return nil
	}
	assignment.EndDate = from.AddDate(0, 0, -1)
	if err := s.stores.LessonAssignments.Update(ctx, exec, assignment); err != nil {
		return internalError(err, "failed to end lesson assignment")
	}
	return nil
}
