package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/internal/models"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
	"github.com/noah-isme/tutor-shift-api/pkg/fiscal"
)

// DailyGridService lazily materializes per-date grids from the weekly template and repairs
// bindings of lessons that arrived after generation.
type DailyGridService struct {
	stores    Stores
	tx        transactor
	layout    GridLayout
	clock     Clock
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDailyGridService constructs the service.
func NewDailyGridService(stores Stores, tx transactor, layout GridLayout, clock Clock, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *DailyGridService {
	if clock == nil {
		clock = SystemClock{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyGridService{
		stores:    stores,
		tx:        tx,
		layout:    layout,
		clock:     clock,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// yearTagFor picks the template a date is generated from.
func (s *DailyGridService) yearTagFor(date time.Time) models.YearTag {
	_, end := fiscal.ShiftYearBounds(s.clock.Now())
	if fiscal.Day(date).After(end) {
		return models.YearNext
	}
	return models.YearCurrent
}

// EnsureDailyGrid generates the grid of date when it does not exist yet, adds intensive
// extension cells and repairs unbound lessons and teacher shifts. Calling it repeatedly never
// duplicates cells or bindings. Closure dates produce no grid.
func (s *DailyGridService) EnsureDailyGrid(ctx context.Context, exec sqlx.ExtContext, date time.Time) (dto.EnsureResult, error) {
	date = fiscal.Day(date)
	result := dto.EnsureResult{Date: date.Format(fiscal.DateLayout)}

	closed, err := s.stores.Calendar.IsClosure(ctx, exec, date)
	if err != nil {
		return result, internalError(err, "failed to check closure")
	}
	if closed {
		return result, nil
	}

	cells, err := s.stores.DailyCells.ListByDate(ctx, exec, date)
	if err != nil {
		return result, internalError(err, "failed to load daily grid")
	}
	if len(cells) == 0 {
		created, err := s.generate(ctx, exec, date)
		if err != nil {
			return result, err
		}
		result.CellsCreated = created
	}

	extended, err := s.extend(ctx, exec, date)
	if err != nil {
		return result, err
	}
	result.CellsCreated += extended

	repaired, unplaced, err := s.repair(ctx, exec, date, false)
	if err != nil {
		return result, err
	}
	result.Repaired = repaired
	result.Unplaced = unplaced

	if result.CellsCreated > 0 || repaired > 0 {
		s.logger.Info("daily grid ensured",
			zap.String("date", result.Date),
			zap.Int("cells_created", result.CellsCreated),
			zap.Int("repaired", repaired),
			zap.Int("unplaced", unplaced),
		)
	}
	return result, nil
}

func (s *DailyGridService) generate(ctx context.Context, exec sqlx.ExtContext, date time.Time) (int, error) {
	tag := s.yearTagFor(date)
	weekday := fiscal.Weekday(date)
	templates, err := s.stores.Templates.List(ctx, exec, tag, &weekday)
	if err != nil {
		return 0, internalError(err, "failed to load grid template")
	}

	created := 0
	for _, tmpl := range templates {
		cell := &models.DailyShiftCell{Date: date, Timeslot: tmpl.Timeslot, Room: tmpl.Room}
		for i, ref := range tmpl.LessonSlots {
			if ref == nil {
				continue
			}
			occurrence, err := s.stores.Lessons.FindBindable(ctx, exec, *ref, date)
			if isNoRows(err) {
				continue
			}
			if err != nil {
				return created, internalError(err, "failed to load lesson occurrence")
			}
			occurrenceID := occurrence.ID
			cell.OccurrenceSlots[i] = &occurrenceID
		}
		if tmpl.TeacherSlot != nil {
			shift, err := s.stores.TeacherShifts.FindFixed(ctx, exec, *tmpl.TeacherSlot, date)
			switch {
			case err == nil:
				shiftID := shift.ID
				cell.TeacherSlot = &shiftID
			case !isNoRows(err):
				return created, internalError(err, "failed to load teacher shift")
			}
		}
		ok, err := s.stores.DailyCells.Create(ctx, exec, cell)
		if err != nil {
			return created, internalError(err, "failed to create daily cell")
		}
		if ok {
			created++
		}
	}
	s.metrics.AddDailyCells(created)
	return created, nil
}

// extend adds extended-timeslot cells and teacher request rows inside intensive periods.
func (s *DailyGridService) extend(ctx context.Context, exec sqlx.ExtContext, date time.Time) (int, error) {
	if !fiscal.IsSchoolDay(date) {
		return 0, nil
	}
	period, err := s.stores.Intensive.FindPeriodOn(ctx, exec, date)
	if isNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, internalError(err, "failed to load intensive period")
	}

	created := 0
	timeslots := append([]int(nil), s.layout.RegularTimeslots...)
	if period.Extended {
		for _, slot := range s.layout.ExtendedTimeslots {
			for _, room := range s.layout.Rooms {
				ok, err := s.stores.DailyCells.Create(ctx, exec, &models.DailyShiftCell{Date: date, Timeslot: slot, Room: room})
				if err != nil {
					return created, internalError(err, "failed to create extended cell")
				}
				if ok {
					created++
				}
			}
		}
		timeslots = append(timeslots, s.layout.ExtendedTimeslots...)
	}
	s.metrics.AddDailyCells(created)

	teachers, err := s.stores.Teachers.ListActive(ctx, exec)
	if err != nil {
		return created, internalError(err, "failed to load teachers")
	}
	for _, teacher := range teachers {
		for _, slot := range timeslots {
			req := models.IntensiveTeacherRequest{TeacherID: teacher.ID, Date: date, Timeslot: slot, Available: true}
			if _, err := s.stores.Intensive.EnsureTeacherRequest(ctx, exec, req); err != nil {
				return created, internalError(err, "failed to ensure teacher request")
			}
		}
	}
	return created, nil
}

// repair binds unbound lessons and teacher shifts taking place on date into the first free
// slot of their timeslot, rooms in canonical order. Regular lessons are only rebound when
// includeRegular is set (operator reload). It returns how many were placed and how many found
// no free slot.
func (s *DailyGridService) repair(ctx context.Context, exec sqlx.ExtContext, date time.Time, includeRegular bool) (int, int, error) {
	cells, err := s.stores.DailyCells.ListByDate(ctx, exec, date)
	if err != nil {
		return 0, 0, internalError(err, "failed to load daily grid")
	}
	if len(cells) == 0 {
		return 0, 0, nil
	}
	s.layout.sortDailyCells(cells)

	lessons, err := s.stores.Lessons.ListUnbound(ctx, exec, date, includeRegular)
	if err != nil {
		return 0, 0, internalError(err, "failed to load unbound lessons")
	}
	shifts, err := s.stores.TeacherShifts.ListUnbound(ctx, exec, date)
	if err != nil {
		return 0, 0, internalError(err, "failed to load unbound teacher shifts")
	}

	dirty := make(map[int]bool)
	lessonsPlaced, shiftsPlaced, unplaced := 0, 0, 0
	for _, occurrence := range lessons {
		idx, slot := firstFreeLessonSlot(cells, occurrence.EffectiveTimeslot())
		if idx < 0 {
			unplaced++
			s.logger.Warn("no free slot for lesson",
				zap.String("date", date.Format(fiscal.DateLayout)),
				zap.Int64("occurrence_id", occurrence.ID),
				zap.Int("timeslot", occurrence.EffectiveTimeslot()),
			)
			continue
		}
		occurrenceID := occurrence.ID
		cells[idx].OccurrenceSlots[slot] = &occurrenceID
		dirty[idx] = true
		lessonsPlaced++
	}
	for _, shift := range shifts {
		idx := firstFreeTeacherSlot(cells, shift.Timeslot)
		if idx < 0 {
			unplaced++
			s.logger.Warn("no free teacher slot",
				zap.String("date", date.Format(fiscal.DateLayout)),
				zap.Int64("shift_id", shift.ID),
				zap.Int("timeslot", shift.Timeslot),
			)
			continue
		}
		shiftID := shift.ID
		cells[idx].TeacherSlot = &shiftID
		dirty[idx] = true
		shiftsPlaced++
	}

	for idx := range dirty {
		if err := s.stores.DailyCells.SaveSlots(ctx, exec, &cells[idx]); err != nil {
			return 0, 0, internalError(err, "failed to save daily cell")
		}
	}
	s.metrics.AddRepairBindings("lesson", lessonsPlaced)
	s.metrics.AddRepairBindings("teacher", shiftsPlaced)
	return lessonsPlaced + shiftsPlaced, unplaced, nil
}

func firstFreeLessonSlot(cells []models.DailyShiftCell, timeslot int) (int, int) {
	for i := range cells {
		if cells[i].Timeslot != timeslot {
			continue
		}
		if slot := cells[i].OccurrenceSlots.FirstFree(); slot >= 0 {
			return i, slot
		}
	}
	return -1, -1
}

func firstFreeTeacherSlot(cells []models.DailyShiftCell, timeslot int) int {
	for i := range cells {
		if cells[i].Timeslot == timeslot && cells[i].TeacherSlot == nil {
			return i
		}
	}
	return -1
}

// requireGrid fails with a precondition error when date has no generated cells.
func (s *DailyGridService) requireGrid(ctx context.Context, exec sqlx.ExtContext, date time.Time) ([]models.DailyShiftCell, error) {
	cells, err := s.stores.DailyCells.ListByDate(ctx, exec, date)
	if err != nil {
		return nil, internalError(err, "failed to load daily grid")
	}
	if len(cells) == 0 {
		return nil, appErrors.Clone(appErrors.ErrMissingGrid,
			fmt.Sprintf("daily grid for %s has not been generated", date.Format(fiscal.DateLayout)))
	}
	return cells, nil
}

// GetDay ensures the grid of date and renders it.
func (s *DailyGridService) GetDay(ctx context.Context, date time.Time) (*dto.DailyGridView, error) {
	date = fiscal.Day(date)
	key := DailyGridKey(date)

	var cached dto.DailyGridView
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	var view *dto.DailyGridView
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if _, err := s.EnsureDailyGrid(ctx, exec, date); err != nil {
			return err
		}
		built, err := s.buildView(ctx, exec, date)
		if err != nil {
			return err
		}
		view = built
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, view, 0); err != nil {
		s.logger.Warn("daily grid not cached",
			zap.String("date", date.Format(fiscal.DateLayout)),
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return view, nil
}

// SaveDay applies operator edits expressed as cell-id + slot pairs.
func (s *DailyGridService) SaveDay(ctx context.Context, date time.Time, req dto.SaveSlotsRequest) (*dto.DailyGridView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid slot payload")
	}
	date = fiscal.Day(date)

	var view *dto.DailyGridView
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		cells, err := s.requireGrid(ctx, exec, date)
		if err != nil {
			return err
		}
		index := make(map[int64]int, len(cells))
		for i := range cells {
			index[cells[i].ID] = i
		}

		dirty := make(map[int]bool)
		for _, pair := range req.Pairs {
			idx, ok := index[pair.CellID]
			if !ok {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("cell %d does not belong to %s", pair.CellID, date.Format(fiscal.DateLayout)))
			}
			var ref *int64
			if pair.RefID != nil {
				v := *pair.RefID
				ref = &v
			}
			if pair.Slot == models.TeacherSlotIndex {
				cells[idx].TeacherSlot = ref
			} else {
				cells[idx].OccurrenceSlots[pair.Slot] = ref
			}
			dirty[idx] = true
		}

		if err := s.checkDayReferences(ctx, exec, date, cells); err != nil {
			return err
		}
		for idx := range dirty {
			if err := s.stores.DailyCells.SaveSlots(ctx, exec, &cells[idx]); err != nil {
				return internalError(err, "failed to save daily cell")
			}
		}

		built, err := s.buildView(ctx, exec, date)
		if err != nil {
			return err
		}
		view = built
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateDays(ctx, date)
	return view, nil
}

// checkDayReferences verifies each occurrence and shift appears once and takes place on date.
func (s *DailyGridService) checkDayReferences(ctx context.Context, exec sqlx.ExtContext, date time.Time, cells []models.DailyShiftCell) error {
	seenLessons := make(map[int64]bool)
	seenShifts := make(map[int64]bool)
	var lessonIDs, shiftIDs []int64
	for _, cell := range cells {
		for _, id := range cell.OccurrenceSlots.IDs() {
			if seenLessons[id] {
				return appErrors.Clone(appErrors.ErrDuplicateSlot, fmt.Sprintf("occurrence %d is placed twice", id))
			}
			seenLessons[id] = true
			lessonIDs = append(lessonIDs, id)
		}
		if cell.TeacherSlot != nil {
			id := *cell.TeacherSlot
			if seenShifts[id] {
				return appErrors.Clone(appErrors.ErrDuplicateSlot, fmt.Sprintf("teacher shift %d is placed twice", id))
			}
			seenShifts[id] = true
			shiftIDs = append(shiftIDs, id)
		}
	}

	if len(lessonIDs) > 0 {
		lessons, err := s.stores.Lessons.ListByIDs(ctx, exec, lessonIDs)
		if err != nil {
			return internalError(err, "failed to load lesson occurrences")
		}
		if len(lessons) != len(lessonIDs) {
			return appErrors.Clone(appErrors.ErrValidation, "unknown occurrence in slot")
		}
		for _, occurrence := range lessons {
			if !occurrence.EffectiveDate().Equal(date) || occurrence.IsAbsent {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("occurrence %d does not take place on %s", occurrence.ID, date.Format(fiscal.DateLayout)))
			}
		}
	}
	if len(shiftIDs) > 0 {
		shifts, err := s.stores.TeacherShifts.ListByIDs(ctx, exec, shiftIDs)
		if err != nil {
			return internalError(err, "failed to load teacher shifts")
		}
		if len(shifts) != len(shiftIDs) {
			return appErrors.Clone(appErrors.ErrValidation, "unknown teacher shift in slot")
		}
		for _, shift := range shifts {
			if !fiscal.Day(shift.Date).Equal(date) {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("teacher shift %d is not on %s", shift.ID, date.Format(fiscal.DateLayout)))
			}
		}
	}
	return nil
}

// Reload reruns the repair pass on an existing grid, rebinding regular lessons as well.
func (s *DailyGridService) Reload(ctx context.Context, date time.Time) (dto.EnsureResult, error) {
	date = fiscal.Day(date)
	result := dto.EnsureResult{Date: date.Format(fiscal.DateLayout)}
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		if _, err := s.requireGrid(ctx, exec, date); err != nil {
			return err
		}
		repaired, unplaced, err := s.repair(ctx, exec, date, true)
		if err != nil {
			return err
		}
		result.Repaired, result.Unplaced = repaired, unplaced
		return nil
	})
	if err != nil {
		return result, err
	}
	s.cache.InvalidateDays(ctx, date)
	return result, nil
}

// ReloadWeek repairs every generated grid of the Monday-to-Sunday week containing date.
func (s *DailyGridService) ReloadWeek(ctx context.Context, date time.Time) ([]dto.EnsureResult, error) {
	monday, sunday := fiscal.WeekBounds(date)
	var results []dto.EnsureResult
	var touched []time.Time
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		return fiscal.EachDay(monday, sunday, func(d time.Time) error {
			cells, err := s.stores.DailyCells.ListByDate(ctx, exec, d)
			if err != nil {
				return internalError(err, "failed to load daily grid")
			}
			if len(cells) == 0 {
				return nil
			}
			repaired, unplaced, err := s.repair(ctx, exec, d, true)
			if err != nil {
				return err
			}
			results = append(results, dto.EnsureResult{Date: d.Format(fiscal.DateLayout), Repaired: repaired, Unplaced: unplaced})
			touched = append(touched, d)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateDays(ctx, touched...)
	return results, nil
}

// ResetDay drops the cells of date so the next read regenerates them from the template.
func (s *DailyGridService) ResetDay(ctx context.Context, date time.Time) (int, error) {
	date = fiscal.Day(date)
	var removed int
	err := s.tx.WithinTx(ctx, func(exec sqlx.ExtContext) error {
		n, err := s.stores.DailyCells.DeleteByDate(ctx, exec, date)
		if err != nil {
			return internalError(err, "failed to reset daily grid")
		}
		removed = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.cache.InvalidateDays(ctx, date)
	s.logger.Info("daily grid reset", zap.String("date", date.Format(fiscal.DateLayout)), zap.Int("removed", removed))
	return removed, nil
}

func (s *DailyGridService) buildView(ctx context.Context, exec sqlx.ExtContext, date time.Time) (*dto.DailyGridView, error) {
	view := &dto.DailyGridView{Date: date.Format(fiscal.DateLayout), Cells: []dto.GridCellView{}}
	closed, err := s.stores.Calendar.IsClosure(ctx, exec, date)
	if err != nil {
		return nil, internalError(err, "failed to check closure")
	}
	view.Closed = closed

	cells, err := s.stores.DailyCells.ListByDate(ctx, exec, date)
	if err != nil {
		return nil, internalError(err, "failed to load daily grid")
	}
	s.layout.sortDailyCells(cells)

	var lessonIDs, shiftIDs []int64
	for _, cell := range cells {
		lessonIDs = append(lessonIDs, cell.OccurrenceSlots.IDs()...)
		if cell.TeacherSlot != nil {
			shiftIDs = append(shiftIDs, *cell.TeacherSlot)
		}
	}
	lessons := make(map[int64]models.LessonOccurrence, len(lessonIDs))
	if len(lessonIDs) > 0 {
		rows, err := s.stores.Lessons.ListByIDs(ctx, exec, lessonIDs)
		if err != nil {
			return nil, internalError(err, "failed to load lesson occurrences")
		}
		for _, row := range rows {
			lessons[row.ID] = row
		}
	}
	shifts := make(map[int64]models.TeacherShiftOccurrence, len(shiftIDs))
	if len(shiftIDs) > 0 {
		rows, err := s.stores.TeacherShifts.ListByIDs(ctx, exec, shiftIDs)
		if err != nil {
			return nil, internalError(err, "failed to load teacher shifts")
		}
		for _, row := range rows {
			shifts[row.ID] = row
		}
	}

	for _, cell := range cells {
		item := dto.GridCellView{CellID: cell.ID, Timeslot: cell.Timeslot, Room: cell.Room}
		for i, ref := range cell.OccurrenceSlots {
			if ref == nil {
				continue
			}
			if occurrence, ok := lessons[*ref]; ok {
				item.Lessons[i] = lessonView(occurrence)
			}
		}
		if cell.TeacherSlot != nil {
			if shift, ok := shifts[*cell.TeacherSlot]; ok {
				item.Teacher = &dto.TeacherShiftView{ShiftID: shift.ID, TeacherID: shift.TeacherID, Fixed: shift.IsFixed}
			}
		}
		view.Cells = append(view.Cells, item)
	}
	return view, nil
}

func lessonView(o models.LessonOccurrence) *dto.LessonView {
	return &dto.LessonView{
		OccurrenceID: o.ID,
		PersonID:     o.PersonID,
		Subject:      o.Subject,
		Grade:        o.Grade,
		GradeLabel:   gradeLabel(o.Grade),
		Regular:      o.IsRegular,
		Temporary:    o.IsTemporary,
		Rescheduled:  o.IsRescheduled,
		Intensive:    o.IsIntensive(),
	}
}

// gradeLabel renders a tier as "3rd grade", tier 13 as "repeat".
func gradeLabel(grade int) string {
	if grade >= fiscal.TerminalTier {
		return "repeat"
	}
	if grade < fiscal.MinTier {
		return ""
	}
	return humanize.Ordinal(grade) + " grade"
}
