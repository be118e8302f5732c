package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/internal/models"
	appErrors "github.com/noah-isme/tutor-shift-api/pkg/errors"
)

func createLesson(t *testing.T, e *engine, personID int64, weekday, timeslot int) *models.WeeklyLessonAssignment {
	t.Helper()
	a, err := e.lessons.Create(context.Background(), dto.CreateLessonAssignmentRequest{
		PersonID: personID, Subject: "math", Weekday: weekday, Timeslot: timeslot, StartDate: "2024-04-01",
	})
	require.NoError(t, err)
	return a
}

func TestEnsureDailyGridBindsTemplateSlotIndex(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	ctx := context.Background()
	first := e.db.addPerson(models.Person{Name: "A", Grade: 5})
	second := e.db.addPerson(models.Person{Name: "B", Grade: 6})
	createLesson(t, e, first.ID, 1, 2)
	b := createLesson(t, e, second.ID, 1, 2)

	date := day("2024-04-08")
	result, err := e.grids.EnsureDailyGrid(ctx, nil, date)
	require.NoError(t, err)
	assert.Equal(t, len(e.layout.RegularTimeslots)*len(e.layout.Rooms), result.CellsCreated)
	assert.Zero(t, result.Repaired)

	cell := e.cell(date, 2, 1)
	var bOccurrence models.LessonOccurrence
	for _, o := range e.db.lessonsOf(b.ID) {
		if o.Date.Equal(date) {
			bOccurrence = o
		}
	}
	require.NotZero(t, bOccurrence.ID)
	require.NotNil(t, cell.OccurrenceSlots[1])
	assert.Equal(t, bOccurrence.ID, *cell.OccurrenceSlots[1])
	assert.NotNil(t, cell.OccurrenceSlots[0])
	assert.Nil(t, cell.OccurrenceSlots[2])
	assert.Nil(t, cell.OccurrenceSlots[3])
}

func TestEnsureDailyGridIdempotent(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	ctx := context.Background()
	person := e.db.addPerson(models.Person{Name: "A", Grade: 5})
	createLesson(t, e, person.ID, 1, 2)
	date := day("2024-04-15")
	e.addOccurrence(models.LessonOccurrence{PersonID: person.ID, Subject: "chem", Grade: 5, Date: date, Timeslot: 4, IsTemporary: true})

	_, err := e.grids.EnsureDailyGrid(ctx, nil, date)
	require.NoError(t, err)
	before := e.db.cellsOn(date)

	result, err := e.grids.EnsureDailyGrid(ctx, nil, date)
	require.NoError(t, err)
	assert.Zero(t, result.CellsCreated)
	assert.Zero(t, result.Repaired)
	assert.Equal(t, before, e.db.cellsOn(date))
}

func TestEnsureDailyGridSkipsClosure(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	date := day("2024-04-29")
	e.addClosure(date)

	result, err := e.grids.EnsureDailyGrid(context.Background(), nil, date)
	require.NoError(t, err)
	assert.Zero(t, result.CellsCreated)
	assert.Empty(t, e.db.cellsOn(date))
}

func TestEnsureDailyGridUsesNextTemplateAfterFiscalEnd(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	date := day("2025-03-03")
	next := e.templateCell(models.YearNext, 1, 1, 1)
	next.TeacherSlot = int64Ptr(777)
	e.db.templates[next.ID] = next
	shift := models.TeacherShiftOccurrence{AssignmentID: int64Ptr(777), TeacherID: 1, Date: date, Timeslot: 1, IsFixed: true}
	require.NoError(t, memShifts{e.db}.Create(context.Background(), nil, &shift))

	_, err := e.grids.EnsureDailyGrid(context.Background(), nil, date)
	require.NoError(t, err)
	cell := e.cell(date, 1, 1)
	require.NotNil(t, cell.TeacherSlot)
	assert.Equal(t, shift.ID, *cell.TeacherSlot)
}

func TestEnsureDailyGridRepairsLateArrivals(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	ctx := context.Background()
	date := day("2024-04-09")
	_, err := e.grids.EnsureDailyGrid(ctx, nil, date)
	require.NoError(t, err)

	capacity := models.SlotCount * len(e.layout.Rooms)
	var first models.LessonOccurrence
	for i := 0; i <= capacity; i++ {
		o := e.addOccurrence(models.LessonOccurrence{PersonID: int64(i + 1), Subject: "math", Grade: 3, Date: date, Timeslot: 3, IsTemporary: true})
		if i == 0 {
			first = o
		}
	}
	adhoc := models.TeacherShiftOccurrence{TeacherID: 4, Date: date, Timeslot: 3}
	require.NoError(t, memShifts{e.db}.Create(ctx, nil, &adhoc))

	result, err := e.grids.EnsureDailyGrid(ctx, nil, date)
	require.NoError(t, err)
	assert.Equal(t, capacity+1, result.Repaired)
	assert.Equal(t, 1, result.Unplaced)

	room1 := e.cell(date, 3, 1)
	require.NotNil(t, room1.OccurrenceSlots[0])
	assert.Equal(t, first.ID, *room1.OccurrenceSlots[0])
	require.NotNil(t, room1.TeacherSlot)
	assert.Equal(t, adhoc.ID, *room1.TeacherSlot)
}

func TestEnsureDailyGridKeepsClearedRegularSlot(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	ctx := context.Background()
	person := e.db.addPerson(models.Person{Name: "A", Grade: 5})
	createLesson(t, e, person.ID, 1, 2)
	date := day("2024-04-08")
	_, err := e.grids.EnsureDailyGrid(ctx, nil, date)
	require.NoError(t, err)
	cell := e.cell(date, 2, 1)
	require.NotNil(t, cell.OccurrenceSlots[0])
	occurrenceID := *cell.OccurrenceSlots[0]

	_, err = e.grids.SaveDay(ctx, date, dto.SaveSlotsRequest{Pairs: []models.SlotPair{{CellID: cell.ID, Slot: 0}}})
	require.NoError(t, err)
	require.Nil(t, e.cell(date, 2, 1).OccurrenceSlots[0])

	result, err := e.grids.EnsureDailyGrid(ctx, nil, date)
	require.NoError(t, err)
	assert.Zero(t, result.Repaired)
	assert.Nil(t, e.cell(date, 2, 1).OccurrenceSlots[0])
	assert.False(t, inAnyCell(e.db, occurrenceID))

	_, err = e.grids.GetDay(ctx, date)
	require.NoError(t, err)
	assert.False(t, inAnyCell(e.db, occurrenceID))

	result, err = e.grids.Reload(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Repaired)
	require.NotNil(t, e.cell(date, 2, 1).OccurrenceSlots[0])
	assert.Equal(t, occurrenceID, *e.cell(date, 2, 1).OccurrenceSlots[0])
}

func TestEnsureDailyGridRepairIgnoresFixedShifts(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	ctx := context.Background()
	date := day("2024-04-09")
	_, err := e.grids.EnsureDailyGrid(ctx, nil, date)
	require.NoError(t, err)

	fixed := models.TeacherShiftOccurrence{AssignmentID: int64Ptr(55), TeacherID: 4, Date: date, Timeslot: 3, IsFixed: true}
	require.NoError(t, memShifts{e.db}.Create(ctx, nil, &fixed))

	result, err := e.grids.EnsureDailyGrid(ctx, nil, date)
	require.NoError(t, err)
	assert.Zero(t, result.Repaired)
	assert.Nil(t, e.cell(date, 3, 1).TeacherSlot)
}

func TestEnsureDailyGridExtendsIntensivePeriod(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	ctx := context.Background()
	e.db.addTeacher(models.Teacher{Name: "Sato", Active: true})
	e.db.addTeacher(models.Teacher{Name: "Retired", Active: false})
	period := models.IntensivePeriod{Name: "Summer", StartDate: day("2024-07-22"), EndDate: day("2024-08-09"), Extended: true}
	require.NoError(t, memIntensive{e.db}.CreatePeriod(ctx, nil, &period))

	date := day("2024-07-23")
	result, err := e.grids.EnsureDailyGrid(ctx, nil, date)
	require.NoError(t, err)
	regular := len(e.layout.RegularTimeslots) * len(e.layout.Rooms)
	extended := len(e.layout.ExtendedTimeslots) * len(e.layout.Rooms)
	assert.Equal(t, regular+extended, result.CellsCreated)
	assert.Len(t, e.db.teacherRequests, len(e.layout.RegularTimeslots)+len(e.layout.ExtendedTimeslots))
	for _, r := range e.db.teacherRequests {
		assert.True(t, r.Available)
	}

	result, err = e.grids.EnsureDailyGrid(ctx, nil, date)
	require.NoError(t, err)
	assert.Zero(t, result.CellsCreated)
	assert.Len(t, e.db.cellsOn(date), regular+extended)
	assert.Len(t, e.db.teacherRequests, len(e.layout.RegularTimeslots)+len(e.layout.ExtendedTimeslots))
}

func TestGetDayRendersLessons(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	person := e.db.addPerson(models.Person{Name: "A", Grade: 3})
	createLesson(t, e, person.ID, 1, 2)

	view, err := e.grids.GetDay(context.Background(), day("2024-04-08"))
	require.NoError(t, err)
	assert.Equal(t, "2024-04-08", view.Date)
	assert.False(t, view.Closed)
	require.Len(t, view.Cells, len(e.layout.RegularTimeslots)*len(e.layout.Rooms))

	var found *dto.LessonView
	for _, cell := range view.Cells {
		if cell.Timeslot == 2 && cell.Room == 1 {
			found = cell.Lessons[0]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, person.ID, found.PersonID)
	assert.Equal(t, "3rd grade", found.GradeLabel)
	assert.True(t, found.Regular)
}

func TestSaveDayRequiresGrid(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	_, err := e.grids.SaveDay(context.Background(), day("2024-04-10"), dto.SaveSlotsRequest{
		Pairs: []models.SlotPair{{CellID: 1, Slot: 0}},
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrMissingGrid))
}

func TestSaveDayMovesAndRejectsDuplicates(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	ctx := context.Background()
	person := e.db.addPerson(models.Person{Name: "A", Grade: 3})
	createLesson(t, e, person.ID, 1, 2)
	date := day("2024-04-08")
	_, err := e.grids.EnsureDailyGrid(ctx, nil, date)
	require.NoError(t, err)

	source := e.cell(date, 2, 1)
	target := e.cell(date, 2, 3)
	occurrenceID := *source.OccurrenceSlots[0]

	_, err = e.grids.SaveDay(ctx, date, dto.SaveSlotsRequest{Pairs: []models.SlotPair{
		{CellID: target.ID, Slot: 2, RefID: &occurrenceID},
	}})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateSlot))
	assert.Nil(t, e.cell(date, 2, 3).OccurrenceSlots[2])

	view, err := e.grids.SaveDay(ctx, date, dto.SaveSlotsRequest{Pairs: []models.SlotPair{
		{CellID: source.ID, Slot: 0},
		{CellID: target.ID, Slot: 2, RefID: &occurrenceID},
	}})
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Nil(t, e.cell(date, 2, 1).OccurrenceSlots[0])
	require.NotNil(t, e.cell(date, 2, 3).OccurrenceSlots[2])
	assert.Equal(t, occurrenceID, *e.cell(date, 2, 3).OccurrenceSlots[2])
}

func TestSaveDayRejectsForeignDateOccurrence(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	ctx := context.Background()
	date := day("2024-04-08")
	_, err := e.grids.EnsureDailyGrid(ctx, nil, date)
	require.NoError(t, err)
	other := e.addOccurrence(models.LessonOccurrence{PersonID: 1, Subject: "math", Date: day("2024-04-09"), Timeslot: 1, IsTemporary: true})

	cell := e.cell(date, 1, 1)
	_, err = e.grids.SaveDay(ctx, date, dto.SaveSlotsRequest{Pairs: []models.SlotPair{
		{CellID: cell.ID, Slot: 0, RefID: &other.ID},
	}})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestResetDayRegeneratesOnRead(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	ctx := context.Background()
	date := day("2024-04-08")
	_, err := e.grids.GetDay(ctx, date)
	require.NoError(t, err)

	removed, err := e.grids.ResetDay(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, len(e.layout.RegularTimeslots)*len(e.layout.Rooms), removed)
	assert.Empty(t, e.db.cellsOn(date))

	_, err = e.grids.Reload(ctx, date)
	assert.True(t, appErrors.Is(err, appErrors.ErrMissingGrid))

	view, err := e.grids.GetDay(ctx, date)
	require.NoError(t, err)
	assert.Len(t, view.Cells, removed)
}

func TestReloadWeekRepairsGeneratedDays(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	ctx := context.Background()
	monday, wednesday := day("2024-04-08"), day("2024-04-10")
	for _, d := range []string{"2024-04-08", "2024-04-10"} {
		_, err := e.grids.EnsureDailyGrid(ctx, nil, day(d))
		require.NoError(t, err)
	}
	e.addOccurrence(models.LessonOccurrence{PersonID: 1, Subject: "math", Date: wednesday, Timeslot: 5, IsTemporary: true})

	results, err := e.grids.ReloadWeek(ctx, monday)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "2024-04-08", results[0].Date)
	assert.Zero(t, results[0].Repaired)
	assert.Equal(t, "2024-04-10", results[1].Date)
	assert.Equal(t, 1, results[1].Repaired)
}
