package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/tutor-shift-api/internal/models"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
	"github.com/noah-isme/tutor-shift-api/pkg/fiscal"
)

// assignmentRange parses a requested range. An empty end defaults to the fiscal end of start.
// The range must lie inside one fiscal year and start no later than next year.
func assignmentRange(clock Clock, rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := parseDate(rawStart, "start_date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	_, fiscalEnd := fiscal.ShiftYearBounds(start)
	end := fiscalEnd
	if rawEnd != "" {
		if end, err = parseDate(rawEnd, "end_date"); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidRange, "start_date must not be after end_date")
	}
	if end.After(fiscalEnd) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidRange,
			fmt.Sprintf("end_date must not be after the fiscal year end %s", fiscalEnd.Format(fiscal.DateLayout)))
	}
	_, nextEnd := fiscal.NextShiftYearBounds(today(clock))
	if start.After(nextEnd) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrInvalidRange, "start_date lies beyond the next fiscal year")
	}
	return start, end, nil
}

// yearTagFor selects the template an assignment starting on start belongs to.
func yearTagFor(clock Clock, start time.Time) models.YearTag {
	_, end := fiscal.ShiftYearBounds(clock.Now())
	if fiscal.Day(start).After(end) {
		return models.YearNext
	}
	return models.YearCurrent
}

// requireYearEnd checks that an assignment runs to the end of the current fiscal year, the
// precondition for every year-end decision.
func requireYearEnd(clock Clock, end time.Time) error {
	_, fiscalEnd := fiscal.ShiftYearBounds(clock.Now())
	if !fiscal.Day(end).Equal(fiscalEnd) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "only assignments running to the fiscal year end can be carried over")
	}
	return nil
}

func requireActive(clock Clock, end time.Time) error {
	if today(clock).After(fiscal.Day(end)) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "assignment has already ended")
	}
	return nil
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
