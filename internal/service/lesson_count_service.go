package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/internal/models"
	"github.com/noah-isme/tutor-shift-api/pkg/fiscal"
)

// MonthLayout is the wire format of billing months.
const MonthLayout = "2006-01"

// LessonCountService compares delivered lessons with the theoretical maximum for billing.
type LessonCountService struct {
	stores Stores
	logger *zap.Logger
}

// NewLessonCountService constructs the service.
func NewLessonCountService(stores Stores, logger *zap.Logger) *LessonCountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonCountService{stores: stores, logger: logger}
}

// Count returns the lessons a person attends in the month containing month. Regular and
// temporary lessons count on the date they take place unless absent; the maximum counts each
// assignment's weekday over the non-closure days of the month inside its range.
func (s *LessonCountService) Count(ctx context.Context, personID int64, month time.Time) (*dto.LessonCountResponse, error) {
	person, err := s.stores.Persons.Get(ctx, nil, personID)
	if err != nil {
		return nil, lookupError(err, "person")
	}
	return s.count(ctx, nil, person, month)
}

// CountAll returns the monthly counts of every enrolled person.
func (s *LessonCountService) CountAll(ctx context.Context, month time.Time) ([]dto.LessonCountResponse, error) {
	persons, err := s.stores.Persons.ListEnrolled(ctx, nil)
	if err != nil {
		return nil, internalError(err, "failed to load persons")
	}
	counts := make([]dto.LessonCountResponse, 0, len(persons))
	for i := range persons {
		count, err := s.count(ctx, nil, &persons[i], month)
		if err != nil {
			return nil, err
		}
		counts = append(counts, *count)
	}
	return counts, nil
}

func (s *LessonCountService) count(ctx context.Context, exec sqlx.ExtContext, person *models.Person, month time.Time) (*dto.LessonCountResponse, error) {
	start, end := fiscal.MonthBounds(month)
	result := &dto.LessonCountResponse{
		PersonID:   person.ID,
		PersonName: person.Name,
		Month:      start.Format(MonthLayout),
		Dates:      []string{},
	}

	occurrences, err := s.stores.Lessons.ListByPerson(ctx, exec, person.ID, start, end)
	if err != nil {
		return nil, internalError(err, "failed to load lesson occurrences")
	}
	for _, o := range occurrences {
		if o.IsAbsent || !(o.IsRegular || o.IsTemporary) {
			continue
		}
		result.Actual++
		result.Dates = append(result.Dates, o.EffectiveDate().Format(fiscal.DateLayout))
	}

	assignments, err := s.stores.LessonAssignments.ListOverlapping(ctx, exec, person.ID, start, end)
	if err != nil {
		return nil, internalError(err, "failed to load lesson assignments")
	}
	closures, err := s.stores.Calendar.ListClosureDates(ctx, exec, start, end)
	if err != nil {
		return nil, internalError(err, "failed to load closures")
	}
	closed := make(map[time.Time]bool, len(closures))
	for _, d := range closures {
		closed[fiscal.Day(d)] = true
	}
	for _, a := range assignments {
		from, to := clipRange(a.StartDate, a.EndDate, start, end)
		_ = fiscal.EachDay(from, to, func(d time.Time) error {
			if fiscal.Weekday(d) == a.Weekday && !closed[d] {
				result.TheoreticalMax++
			}
			return nil
		})
	}
	return result, nil
}

// MarkReported toggles the billing flag of an occurrence.
func (s *LessonCountService) MarkReported(ctx context.Context, occurrenceID int64, reported bool) error {
	if err := s.stores.Lessons.SetReported(ctx, nil, occurrenceID, reported); err != nil {
		return lookupError(err, "lesson occurrence")
	}
	return nil
}
