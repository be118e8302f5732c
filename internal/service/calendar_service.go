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

// CalendarService manages closure days and keeps dated schedules consistent with them.
type CalendarService struct {
	stores       Stores
	tx           transactor
	materializer *Materializer
	grids        *DailyGridService
	cache        *CacheService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewCalendarService constructs the service.
func NewCalendarService(stores Stores, tx transactor, materializer *Materializer, grids *DailyGridService, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		stores:       stores,
		tx:           tx,
		materializer: materializer,
		grids:        grids,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// IsClosure reports whether date is a closure day.
func (s *CalendarService) IsClosure(ctx context.Context, exec sqlx.ExtContext, date time.Time) (bool, error) {
	closed, err := s.stores.Calendar.IsClosure(ctx, exec, fiscal.Day(date))
	if err != nil {
		return false, internalError(err, "failed to check closure")
	}
	return closed, nil
}

// List returns calendar events between from and to, both optional.
func (s *CalendarService) List(ctx context.Context, from, to *time.Time, closuresOnly bool) ([]models.CalendarEvent, error) {
	filter := models.CalendarFilter{StartDate: from, EndDate: to}
	if closuresOnly {
		closures := true
		filter.Closures = &closures
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "from must not be after to")
	}
	events, err := s.stores.Calendar.List(ctx, nil, filter)
	if err != nil {
		return nil, internalError(err, "failed to list calendar events")
	}
	return events, nil
}

// DeclareClosure closes a date and purges everything dated on it: lesson occurrences, teacher
// shifts with their temporary assignments, daily cells and other events.
func (s *CalendarService) DeclareClosure(ctx context.Context, req dto.DeclareClosureRequest) (*models.CalendarEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid closure payload")
	}
	date, err := parseDate(req.Date, "date")
	if err != nil {
		return nil, err
	}

	event := &models.CalendarEvent{Date: date, Title: req.Title, IsClosure: true}
	var lessons, shifts int
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		closed, err := s.IsClosure(ctx, exec, date)
		if err != nil {
			return err
		}
		if closed {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is already closed", date.Format(fiscal.DateLayout)))
		}

		if _, err := s.stores.DailyCells.DeleteByDate(ctx, exec, date); err != nil {
			return internalError(err, "failed to delete daily cells")
		}
		lessonIDs, err := s.stores.Lessons.DeleteByDate(ctx, exec, date)
		if err != nil {
			return internalError(err, "failed to delete lesson occurrences")
		}
		shiftIDs, err := s.stores.TeacherShifts.DeleteByDate(ctx, exec, date)
		if err != nil {
			return internalError(err, "failed to delete teacher shifts")
		}
		if _, err := s.stores.TeacherAssignments.DeleteTemporaryByDate(ctx, exec, date); err != nil {
			return internalError(err, "failed to delete temporary teacher assignments")
		}
		if _, err := s.stores.Calendar.DeleteNonClosureOn(ctx, exec, date); err != nil {
			return internalError(err, "failed to delete calendar events")
		}
		if err := s.stores.Calendar.Create(ctx, exec, event); err != nil {
			return internalError(err, "failed to create closure")
		}
		lessons, shifts = len(lessonIDs), len(shiftIDs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateDays(ctx, date)
	s.logger.Info("closure declared",
		zap.String("date", date.Format(fiscal.DateLayout)),
		zap.Int("lessons_removed", lessons),
		zap.Int("shifts_removed", shifts),
	)
	return event, nil
}

// RevokeClosure reopens a date: regular lessons and fixed teacher shifts of the assignments
// active on it are materialized again, the intensive marker is restored and the grid is
// regenerated.
func (s *CalendarService) RevokeClosure(ctx context.Context, eventID int64) (*dto.EnsureResult, error) {
	var result dto.EnsureResult
	var date time.Time
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		event, err := s.stores.Calendar.Get(ctx, exec, eventID)
		if err != nil {
			return lookupError(err, "calendar event")
		}
		if !event.IsClosure {
			return appErrors.Clone(appErrors.ErrValidation, "event is not a closure")
		}
		date = fiscal.Day(event.Date)
		if err := s.stores.Calendar.Delete(ctx, exec, event.ID); err != nil {
			return internalError(err, "failed to delete closure")
		}

		if fiscal.IsSchoolDay(date) {
			if err := s.restoreOccurrences(ctx, exec, date); err != nil {
				return err
			}
			if err := s.restoreIntensiveMarker(ctx, exec, date); err != nil {
				return err
			}
		}

		ensured, err := s.grids.EnsureDailyGrid(ctx, exec, date)
		if err != nil {
			return err
		}
		result = ensured
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateDays(ctx, date)
	s.logger.Info("closure revoked",
		zap.String("date", date.Format(fiscal.DateLayout)),
		zap.Int("cells_created", result.CellsCreated),
	)
	return &result, nil
}

func (s *CalendarService) restoreOccurrences(ctx context.Context, exec sqlx.ExtContext, date time.Time) error {
	tag := s.grids.yearTagFor(date)
	weekday := fiscal.Weekday(date)

	lessonAssignments, err := s.stores.LessonAssignments.ListActiveOn(ctx, exec, weekday, date)
	if err != nil {
		return internalError(err, "failed to load lesson assignments")
	}
	for i := range lessonAssignments {
		if _, err := s.materializer.MaterializeLessons(ctx, exec, &lessonAssignments[i], date, date, tag); err != nil {
			return err
		}
	}

	teacherAssignments, err := s.stores.TeacherAssignments.ListActiveOn(ctx, exec, weekday, date)
	if err != nil {
		return internalError(err, "failed to load teacher assignments")
	}
	for i := range teacherAssignments {
		if _, err := s.materializer.MaterializeTeacherShifts(ctx, exec, &teacherAssignments[i], date, date, tag); err != nil {
			return err
		}
	}
	return nil
}

func (s *CalendarService) restoreIntensiveMarker(ctx context.Context, exec sqlx.ExtContext, date time.Time) error {
	period, err := s.stores.Intensive.FindPeriodOn(ctx, exec, date)
	if isNoRows(err) {
		return nil
	}
	if err != nil {
		return internalError(err, "failed to load intensive period")
	}
	marker := &models.CalendarEvent{Date: date, Title: period.Name, IsFixed: true}
	if err := s.stores.Calendar.Create(ctx, exec, marker); err != nil {
		return internalError(err, "failed to restore intensive marker")
	}
	return nil
}
