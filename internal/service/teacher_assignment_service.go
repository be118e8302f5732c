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

// TeacherAssignmentService manages fixed weekly teacher shifts.
type TeacherAssignmentService struct {
	stores       Stores
	tx           transactor
	materializer *Materializer
	layout       GridLayout
	clock        Clock
	cache        *CacheService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewTeacherAssignmentService creates a service instance.
func NewTeacherAssignmentService(stores Stores, tx transactor, materializer *Materializer, layout GridLayout, clock Clock, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TeacherAssignmentService {
	if clock == nil {
		clock = SystemClock{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherAssignmentService{
		stores:       stores,
		tx:           tx,
		materializer: materializer,
		layout:       layout,
		clock:        clock,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// List returns a page of teacher assignments.
func (s *TeacherAssignmentService) List(ctx context.Context, filter models.TeacherAssignmentFilter) ([]models.WeeklyTeacherAssignment, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	assignments, total, err := s.stores.TeacherAssignments.List(ctx, nil, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list teacher assignments")
	}
	return assignments, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Create registers a weekly shift for an active teacher and materializes it.
func (s *TeacherAssignmentService) Create(ctx context.Context, req dto.CreateTeacherAssignmentRequest) (*models.WeeklyTeacherAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assignment payload")
	}
	if !s.layout.isRegularTimeslot(req.Timeslot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timeslot %d", req.Timeslot))
	}
	start, end, err := assignmentRange(s.clock, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	var created *models.WeeklyTeacherAssignment
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		teacher, err := s.stores.Teachers.Get(ctx, exec, req.TeacherID)
		if err != nil {
			return lookupError(err, "teacher")
		}
		if !teacher.Active {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "teacher inactive")
		}
		created, err = s.create(ctx, exec, teacher.ID, req.Weekday, req.Timeslot, start, end, yearTagFor(s.clock, start))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAllDays(ctx)
	return created, nil
}

// Replace ends the shift as of today and starts one on another weekday and timeslot.
func (s *TeacherAssignmentService) Replace(ctx context.Context, id int64, req dto.MoveAssignmentRequest) (*models.WeeklyTeacherAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid replacement payload")
	}
	if !s.layout.isRegularTimeslot(req.Timeslot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timeslot %d", req.Timeslot))
	}

	var replacement *models.WeeklyTeacherAssignment
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		current, err := s.stores.TeacherAssignments.Get(ctx, exec, id)
		if err != nil {
			return lookupError(err, "teacher assignment")
		}
		if err := requireActive(s.clock, current.EndDate); err != nil {
			return err
		}
		from := today(s.clock)
		start := laterOf(from, current.StartDate)
		end := current.EndDate
		if err := s.end(ctx, exec, current, from); err != nil {
			return err
		}
		replacement, err = s.create(ctx, exec, current.TeacherID, req.Weekday, req.Timeslot, start, end, yearTagFor(s.clock, start))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAllDays(ctx)
	return replacement, nil
}

// Cancel ends the shift as of today.
func (s *TeacherAssignmentService) Cancel(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		current, err := s.stores.TeacherAssignments.Get(ctx, exec, id)
		if err != nil {
			return lookupError(err, "teacher assignment")
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
	return nil
}

// ContinueNextYear clones the shift into next fiscal year.
func (s *TeacherAssignmentService) ContinueNextYear(ctx context.Context, id int64) (*models.WeeklyTeacherAssignment, error) {
	return s.carryOver(ctx, id, nil)
}

// ChangeNextYear starts next fiscal year's shift on a different weekday and timeslot.
func (s *TeacherAssignmentService) ChangeNextYear(ctx context.Context, id int64, req dto.MoveAssignmentRequest) (*models.WeeklyTeacherAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid change payload")
	}
	if !s.layout.isRegularTimeslot(req.Timeslot) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timeslot %d", req.Timeslot))
	}
	return s.carryOver(ctx, id, &req)
}

// EndAtYearEnd records that the shift stops with the current fiscal year.
func (s *TeacherAssignmentService) EndAtYearEnd(ctx context.Context, id int64) (*models.WeeklyTeacherAssignment, error) {
	var result *models.WeeklyTeacherAssignment
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		current, err := s.yearEndCandidate(ctx, exec, id)
		if err != nil {
			return err
		}
		current.RolledForward = true
		if err := s.stores.TeacherAssignments.Update(ctx, exec, current); err != nil {
			return internalError(err, "failed to update teacher assignment")
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *TeacherAssignmentService) carryOver(ctx context.Context, id int64, change *dto.MoveAssignmentRequest) (*models.WeeklyTeacherAssignment, error) {
	var clone *models.WeeklyTeacherAssignment
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		current, err := s.yearEndCandidate(ctx, exec, id)
		if err != nil {
			return err
		}
		weekday, timeslot := current.Weekday, current.Timeslot
		if change != nil {
			weekday, timeslot = change.Weekday, change.Timeslot
		}
		start, end := fiscal.NextShiftYearBounds(s.clock.Now())
		clone, err = s.create(ctx, exec, current.TeacherID, weekday, timeslot, start, end, models.YearNext)
		if err != nil {
			return err
		}
		current.RolledForward = true
		if err := s.stores.TeacherAssignments.Update(ctx, exec, current); err != nil {
			return internalError(err, "failed to update teacher assignment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAllDays(ctx)
	return clone, nil
}

func (s *TeacherAssignmentService) yearEndCandidate(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.WeeklyTeacherAssignment, error) {
	current, err := s.stores.TeacherAssignments.Get(ctx, exec, id)
	if err != nil {
		return nil, lookupError(err, "teacher assignment")
	}
	if current.RolledForward {
		return nil, appErrors.Clone(appErrors.ErrDuplicateSlot, "assignment already has a year-end decision")
	}
	if err := requireYearEnd(s.clock, current.EndDate); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *TeacherAssignmentService) create(ctx context.Context, exec sqlx.ExtContext, teacherID int64, weekday, timeslot int, start, end time.Time, tag models.YearTag) (*models.WeeklyTeacherAssignment, error) {
	existing, err := s.stores.TeacherAssignments.ListOverlapping(ctx, exec, teacherID, start, end)
	if err != nil {
		return nil, internalError(err, "failed to load teacher assignments")
	}
	for _, a := range existing {
		if a.Weekday == weekday && a.Timeslot == timeslot {
			return nil, appErrors.Clone(appErrors.ErrDuplicateSlot,
				fmt.Sprintf("teacher already works weekday %d timeslot %d", weekday, timeslot))
		}
	}

	assignment := &models.WeeklyTeacherAssignment{
		TeacherID: teacherID,
		Weekday:   weekday,
		Timeslot:  timeslot,
		StartDate: start,
		EndDate:   end,
	}
	if err := s.stores.TeacherAssignments.Create(ctx, exec, assignment); err != nil {
		return nil, internalError(err, "failed to create teacher assignment")
	}
	created, err := s.materializer.MaterializeTeacherShifts(ctx, exec, assignment, start, end, tag)
	if err != nil {
		return nil, err
	}
	s.logger.Info("teacher assignment created",
		zap.Int64("assignment_id", assignment.ID),
		zap.Int64("teacher_id", teacherID),
		zap.Int("shifts", created),
	)
	return assignment, nil
}

func (s *TeacherAssignmentService) end(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyTeacherAssignment, from time.Time) error {
	ids, err := s.stores.TeacherShifts.DeleteForAssignmentFrom(ctx, exec, assignment.ID, from)
	if err != nil {
		return internalError(err, "failed to delete teacher shifts")
	}
	if err := s.stores.DailyCells.DetachTeacherShifts(ctx, exec, ids); err != nil {
		return internalError(err, "failed to detach teacher shifts")
	}
	if err := s.materializer.unbindTeacherAssignment(ctx, exec, assignment.ID); err != nil {
		return err
	}

	if !from.After(assignment.StartDate) {
		if err := s.stores.TeacherAssignments.Delete(ctx, exec, assignment.ID); err != nil {
			return internalError(err, "failed to delete teacher assignment")
		}
		return nil
	}
	assignment.EndDate = from.AddDate(0, 0, -1)
	if err := s.stores.TeacherAssignments.Update(ctx, exec, assignment); err != nil {
		return internalError(err, "failed to end teacher assignment")
	}
	return nil
}
