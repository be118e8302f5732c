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

// IntensiveService manages seasonal intensive course periods, enrolments and availability
// requests.
type IntensiveService struct {
	stores    Stores
	tx        transactor
	grids     *DailyGridService
	layout    GridLayout
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIntensiveService constructs the service.
func NewIntensiveService(stores Stores, tx transactor, grids *DailyGridService, layout GridLayout, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *IntensiveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntensiveService{
		stores:    stores,
		tx:        tx,
		grids:     grids,
		layout:    layout,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// CreatePeriod opens an intensive period. Every non-closure school day inside it gets the
// fixed marker event and an ensured daily grid.
func (s *IntensiveService) CreatePeriod(ctx context.Context, req dto.CreateIntensivePeriodRequest) (*models.IntensivePeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid intensive period payload")
	}
	start, err := parseDate(req.StartDate, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate, "end_date")
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "start_date must not be after end_date")
	}

	period := &models.IntensivePeriod{Name: req.Name, StartDate: start, EndDate: end, Extended: req.Extended}
	err = s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		overlapping, err := s.stores.Intensive.ListOverlapping(ctx, exec, start, end)
		if err != nil {
			return internalError(err, "failed to load intensive periods")
		}
		if len(overlapping) > 0 {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("period overlaps %q", overlapping[0].Name))
		}
		if err := s.stores.Intensive.CreatePeriod(ctx, exec, period); err != nil {
			return internalError(err, "failed to create intensive period")
		}

		return s.eachOpenSchoolDay(ctx, exec, start, end, func(d time.Time) error {
			marker := &models.CalendarEvent{Date: d, Title: period.Name, IsFixed: true}
			if err := s.stores.Calendar.Create(ctx, exec, marker); err != nil {
				return internalError(err, "failed to create intensive marker")
			}
			_, err := s.grids.EnsureDailyGrid(ctx, exec, d)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateAllDays(ctx)
	s.logger.Info("intensive period created",
		zap.Int64("period_id", period.ID),
		zap.String("start", start.Format(fiscal.DateLayout)),
		zap.String("end", end.Format(fiscal.DateLayout)),
		zap.Bool("extended", period.Extended),
	)
	return period, nil
}

// DeletePeriod removes the period with its marker events and extended-timeslot cells.
func (s *IntensiveService) DeletePeriod(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		period, err := s.stores.Intensive.GetPeriod(ctx, exec, id)
		if err != nil {
			return lookupError(err, "intensive period")
		}
		if _, err := s.stores.Calendar.DeleteFixedInRange(ctx, exec, period.StartDate, period.EndDate); err != nil {
			return internalError(err, "failed to delete intensive markers")
		}
		if len(s.layout.ExtendedTimeslots) > 0 {
			if _, err := s.stores.DailyCells.DeleteTimeslotsInRange(ctx, exec, period.StartDate, period.EndDate, s.layout.ExtendedTimeslots); err != nil {
				return internalError(err, "failed to delete extended cells")
			}
		}
		if err := s.stores.Intensive.DeletePeriod(ctx, exec, period.ID); err != nil {
			return internalError(err, "failed to delete intensive period")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateAllDays(ctx)
	s.logger.Info("intensive period deleted", zap.Int64("period_id", id))
	return nil
}

// CreateAssignment enrols a person and seeds unavailable request rows for every open date and
// timeslot of the period.
func (s *IntensiveService) CreateAssignment(ctx context.Context, periodID int64, req dto.CreateIntensiveAssignmentRequest) (*models.IntensiveAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid intensive assignment payload")
	}

	var assignment *models.IntensiveAssignment
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		period, err := s.stores.Intensive.GetPeriod(ctx, exec, periodID)
		if err != nil {
			return lookupError(err, "intensive period")
		}
		person, err := s.stores.Persons.Get(ctx, exec, req.PersonID)
		if err != nil {
			return lookupError(err, "person")
		}
		assignment = &models.IntensiveAssignment{
			PersonID: person.ID,
			PeriodID: period.ID,
			Subject:  req.Subject,
			Grade:    person.Grade,
			Quota:    req.Quota,
		}
		if err := s.stores.Intensive.CreateAssignment(ctx, exec, assignment); err != nil {
			return internalError(err, "failed to create intensive assignment")
		}

		timeslots := s.periodTimeslots(period)
		return s.eachOpenSchoolDay(ctx, exec, period.StartDate, period.EndDate, func(d time.Time) error {
			for _, slot := range timeslots {
				row := models.IntensivePersonRequest{PersonID: person.ID, PeriodID: period.ID, Date: d, Timeslot: slot}
				if _, err := s.stores.Intensive.EnsurePersonRequest(ctx, exec, row); err != nil {
					return internalError(err, "failed to create person request")
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// UpdatePersonRequests toggles a person's availability rows within a period.
func (s *IntensiveService) UpdatePersonRequests(ctx context.Context, periodID int64, req dto.UpdatePersonRequestsRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, validationError(err, "invalid availability payload")
	}
	updated := 0
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		for _, toggle := range req.Toggles {
			date, err := parseDate(toggle.Date, "date")
			if err != nil {
				return err
			}
			row := models.IntensivePersonRequest{PersonID: req.PersonID, PeriodID: periodID, Date: date, Timeslot: toggle.Timeslot, Available: toggle.Available}
			ok, err := s.stores.Intensive.SetPersonAvailability(ctx, exec, row)
			if err != nil {
				return internalError(err, "failed to update person request")
			}
			if !ok {
				return appErrors.Clone(appErrors.ErrNotFound,
					fmt.Sprintf("no request for %s timeslot %d", toggle.Date, toggle.Timeslot))
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// UpdateTeacherRequests toggles a teacher's availability rows.
func (s *IntensiveService) UpdateTeacherRequests(ctx context.Context, req dto.UpdateTeacherRequestsRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, validationError(err, "invalid availability payload")
	}
	updated := 0
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		for _, toggle := range req.Toggles {
			date, err := parseDate(toggle.Date, "date")
			if err != nil {
				return err
			}
			row := models.IntensiveTeacherRequest{TeacherID: req.TeacherID, Date: date, Timeslot: toggle.Timeslot, Available: toggle.Available}
			ok, err := s.stores.Intensive.SetTeacherAvailability(ctx, exec, row)
			if err != nil {
				return internalError(err, "failed to update teacher request")
			}
			if !ok {
				return appErrors.Clone(appErrors.ErrNotFound,
					fmt.Sprintf("no request for %s timeslot %d", toggle.Date, toggle.Timeslot))
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func (s *IntensiveService) periodTimeslots(period *models.IntensivePeriod) []int {
	timeslots := append([]int(nil), s.layout.RegularTimeslots...)
	if period.Extended {
		timeslots = append(timeslots, s.layout.ExtendedTimeslots...)
	}
	return timeslots
}

// eachOpenSchoolDay calls fn for every Monday-to-Friday date in range that is not a closure.
func (s *IntensiveService) eachOpenSchoolDay(ctx context.Context, exec sqlx.ExtContext, start, end time.Time, fn func(time.Time) error) error {
	closures, err := s.stores.Calendar.ListClosureDates(ctx, exec, start, end)
	if err != nil {
		return internalError(err, "failed to load closures")
	}
	closed := make(map[time.Time]bool, len(closures))
	for _, d := range closures {
		closed[fiscal.Day(d)] = true
	}
	return fiscal.EachDay(start, end, func(d time.Time) error {
		if !fiscal.IsSchoolDay(d) || closed[d] {
			return nil
		}
		return fn(d)
	})
}
