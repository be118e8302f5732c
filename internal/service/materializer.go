package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-shift-api/internal/models"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
	"github.com/noah-isme/tutor-shift-api/pkg/fiscal"
)

// Materializer expands weekly assignments into dated occurrences and binds the assignments
// into the weekly grid template.
type Materializer struct {
	stores  Stores
	layout  GridLayout
	metrics *MetricsService
	logger  *zap.Logger
}

// NewMaterializer constructs a Materializer.
func NewMaterializer(stores Stores, layout GridLayout, metrics *MetricsService, logger *zap.Logger) *Materializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Materializer{stores: stores, layout: layout, metrics: metrics, logger: logger}
}

// MaterializeLessons binds the assignment into the template of tag and creates one regular
// occurrence per matching non-closure date in [start, end] clipped to the assignment range.
// Dates that already hold an occurrence of the assignment are skipped.
func (m *Materializer) MaterializeLessons(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyLessonAssignment, start, end time.Time, tag models.YearTag) (int, error) {
	if err := m.bindLessonAssignment(ctx, exec, assignment, tag); err != nil {
		return 0, err
	}

	from, to := clipRange(assignment.StartDate, assignment.EndDate, start, end)
	if from.After(to) {
		return 0, nil
	}
	skip, err := m.skippedDates(ctx, exec, from, to, func() ([]time.Time, error) {
		return m.stores.Lessons.ListDatesForAssignment(ctx, exec, assignment.ID, from, to)
	})
	if err != nil {
		return 0, err
	}

	created := 0
	err = fiscal.EachDay(from, to, func(d time.Time) error {
		if fiscal.Weekday(d) != assignment.Weekday || skip[d] {
			return nil
		}
		assignmentID := assignment.ID
		occurrence := &models.LessonOccurrence{
			AssignmentID: &assignmentID,
			PersonID:     assignment.PersonID,
			Subject:      assignment.Subject,
			Grade:        assignment.Grade,
			Date:         d,
			Timeslot:     assignment.Timeslot,
			IsRegular:    true,
		}
		if err := m.stores.Lessons.Create(ctx, exec, occurrence); err != nil {
			return internalError(err, "failed to create lesson occurrence")
		}
		created++
		return nil
	})
	if err != nil {
		return created, err
	}

	m.metrics.AddOccurrences("lesson", created)
	m.logger.Info("lesson occurrences materialized",
		zap.Int64("assignment_id", assignment.ID),
		zap.String("year_tag", string(tag)),
		zap.String("from", from.Format(fiscal.DateLayout)),
		zap.String("to", to.Format(fiscal.DateLayout)),
		zap.Int("created", created),
	)
	return created, nil
}

// MaterializeTeacherShifts is the teacher counterpart of MaterializeLessons: it fills the
// template teacher slot and creates fixed shift occurrences.
func (m *Materializer) MaterializeTeacherShifts(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyTeacherAssignment, start, end time.Time, tag models.YearTag) (int, error) {
	if err := m.bindTeacherAssignment(ctx, exec, assignment, tag); err != nil {
		return 0, err
	}

	from, to := clipRange(assignment.StartDate, assignment.EndDate, start, end)
	if from.After(to) {
		return 0, nil
	}
	skip, err := m.skippedDates(ctx, exec, from, to, func() ([]time.Time, error) {
		return m.stores.TeacherShifts.ListDatesForAssignment(ctx, exec, assignment.ID, from, to)
	})
	if err != nil {
		return 0, err
	}

	created := 0
	err = fiscal.EachDay(from, to, func(d time.Time) error {
		if fiscal.Weekday(d) != assignment.Weekday || skip[d] {
			return nil
		}
		assignmentID := assignment.ID
		shift := &models.TeacherShiftOccurrence{
			AssignmentID: &assignmentID,
			TeacherID:    assignment.TeacherID,
			Date:         d,
			Timeslot:     assignment.Timeslot,
			IsFixed:      true,
		}
		if err := m.stores.TeacherShifts.Create(ctx, exec, shift); err != nil {
			return internalError(err, "failed to create teacher shift")
		}
		created++
		return nil
	})
	if err != nil {
		return created, err
	}

	m.metrics.AddOccurrences("teacher", created)
	m.logger.Info("teacher shifts materialized",
		zap.Int64("assignment_id", assignment.ID),
		zap.String("year_tag", string(tag)),
		zap.Int("created", created),
	)
	return created, nil
}

// skippedDates merges closure dates with the dates already materialized for an assignment.
func (m *Materializer) skippedDates(ctx context.Context, exec sqlx.ExtContext, from, to time.Time, existing func() ([]time.Time, error)) (map[time.Time]bool, error) {
	closures, err := m.stores.Calendar.ListClosureDates(ctx, exec, from, to)
	if err != nil {
		return nil, internalError(err, "failed to load closures")
	}
	dates, err := existing()
	if err != nil {
		return nil, internalError(err, "failed to load existing occurrences")
	}
	skip := make(map[time.Time]bool, len(closures)+len(dates))
	for _, d := range closures {
		skip[fiscal.Day(d)] = true
	}
	for _, d := range dates {
		skip[fiscal.Day(d)] = true
	}
	return skip, nil
}

func (m *Materializer) bindLessonAssignment(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyLessonAssignment, tag models.YearTag) error {
	if _, err := m.stores.Templates.FindByLessonAssignment(ctx, exec, assignment.ID); err == nil {
		return nil
	} else if !isNoRows(err) {
		return internalError(err, "failed to load grid template")
	}

	cells, err := m.templateCells(ctx, exec, tag, assignment.Weekday, assignment.Timeslot)
	if err != nil {
		return err
	}
	for i := range cells {
		idx := cells[i].LessonSlots.FirstFree()
		if idx < 0 {
			continue
		}
		assignmentID := assignment.ID
		cells[i].LessonSlots[idx] = &assignmentID
		if err := m.stores.Templates.SaveSlots(ctx, exec, &cells[i]); err != nil {
			return internalError(err, "failed to bind lesson assignment")
		}
		return nil
	}

	m.metrics.RecordCapacityRejection("materialize_lessons")
	return appErrors.Clone(appErrors.ErrCapacityExceeded,
		fmt.Sprintf("no free lesson slot on weekday %d timeslot %d", assignment.Weekday, assignment.Timeslot))
}

func (m *Materializer) bindTeacherAssignment(ctx context.Context, exec sqlx.ExtContext, assignment *models.WeeklyTeacherAssignment, tag models.YearTag) error {
	if _, err := m.stores.Templates.FindByTeacherAssignment(ctx, exec, assignment.ID); err == nil {
		return nil
	} else if !isNoRows(err) {
		return internalError(err, "failed to load grid template")
	}

	cells, err := m.templateCells(ctx, exec, tag, assignment.Weekday, assignment.Timeslot)
	if err != nil {
		return err
	}
	for i := range cells {
		if cells[i].TeacherSlot != nil {
			continue
		}
		assignmentID := assignment.ID
		cells[i].TeacherSlot = &assignmentID
		if err := m.stores.Templates.SaveSlots(ctx, exec, &cells[i]); err != nil {
			return internalError(err, "failed to bind teacher assignment")
		}
		return nil
	}

	m.metrics.RecordCapacityRejection("materialize_teacher_shifts")
	return appErrors.Clone(appErrors.ErrCapacityExceeded,
		fmt.Sprintf("no free teacher slot on weekday %d timeslot %d", assignment.Weekday, assignment.Timeslot))
}

func (m *Materializer) templateCells(ctx context.Context, exec sqlx.ExtContext, tag models.YearTag, weekday, timeslot int) ([]models.GridTemplateCell, error) {
	cells, err := m.stores.Templates.ListSlot(ctx, exec, tag, weekday, timeslot)
	if err != nil {
		return nil, internalError(err, "failed to load grid template")
	}
	if len(cells) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("grid template %s has no cell for weekday %d timeslot %d", tag, weekday, timeslot))
	}
	m.layout.sortTemplateCells(cells)
	return cells, nil
}

// unbindLessonAssignment clears the assignment from every template slot it occupies.
func (m *Materializer) unbindLessonAssignment(ctx context.Context, exec sqlx.ExtContext, assignmentID int64) error {
	cell, err := m.stores.Templates.FindByLessonAssignment(ctx, exec, assignmentID)
	if isNoRows(err) {
		return nil
	}
	if err != nil {
		return internalError(err, "failed to load grid template")
	}
	cell.LessonSlots.Clear(assignmentID)
	if err := m.stores.Templates.SaveSlots(ctx, exec, cell); err != nil {
		return internalError(err, "failed to unbind lesson assignment")
	}
	return nil
}

func (m *Materializer) unbindTeacherAssignment(ctx context.Context, exec sqlx.ExtContext, assignmentID int64) error {
	cell, err := m.stores.Templates.FindByTeacherAssignment(ctx, exec, assignmentID)
	if isNoRows(err) {
		return nil
	}
	if err != nil {
		return internalError(err, "failed to load grid template")
	}
	cell.TeacherSlot = nil
	if err := m.stores.Templates.SaveSlots(ctx, exec, cell); err != nil {
		return internalError(err, "failed to unbind teacher assignment")
	}
	return nil
}

// clipRange intersects [aStart, aEnd] with [start, end].
func clipRange(aStart, aEnd, start, end time.Time) (time.Time, time.Time) {
	from, to := fiscal.Day(start), fiscal.Day(end)
	if aStart.After(from) {
		from = fiscal.Day(aStart)
	}
	if aEnd.Before(to) {
		to = fiscal.Day(aEnd)
	}
	return from, to
}
