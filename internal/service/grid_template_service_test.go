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

func TestGridTemplateInitialize(t *testing.T) {
	e := newEngine(day("2024-04-01"))
	ctx := context.Background()

	created, err := e.templates.Initialize(ctx, models.YearCurrent)
	require.NoError(t, err)
	assert.Equal(t, 75, created)

	created, err = e.templates.Initialize(ctx, models.YearCurrent)
	require.NoError(t, err)
	assert.Zero(t, created)

	_, err = e.templates.Initialize(ctx, models.YearTag("previous"))
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	monday := 1
	cells, err := e.templates.List(ctx, models.YearCurrent, &monday)
	require.NoError(t, err)
	assert.Len(t, cells, 15)

	cells, err = e.templates.List(ctx, models.YearNext, nil)
	require.NoError(t, err)
	assert.Empty(t, cells)
}

func TestGridTemplateSave(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	ctx := context.Background()
	lesson := e.addLessonAssignment(models.WeeklyLessonAssignment{
		PersonID: 1, Subject: "math", Weekday: 1, Timeslot: 2, Grade: 4,
		StartDate: day("2024-04-01"), EndDate: day("2025-02-28"),
	})
	shift := &models.WeeklyTeacherAssignment{TeacherID: 1, Weekday: 1, Timeslot: 2, StartDate: day("2024-04-01"), EndDate: day("2025-02-28")}
	require.NoError(t, memTeacherAssignments{e.db}.Create(ctx, nil, shift))

	room2 := e.templateCell(models.YearCurrent, 1, 2, 2)
	room3 := e.templateCell(models.YearCurrent, 1, 2, 3)

	saved, err := e.templates.Save(ctx, dto.SaveTemplateRequest{
		YearTag: models.YearCurrent,
		Pairs: []models.SlotPair{
			{CellID: room2.ID, Slot: 1, RefID: int64Ptr(lesson.ID)},
			{CellID: room2.ID, Slot: models.TeacherSlotIndex, RefID: int64Ptr(shift.ID)},
		},
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	stored := e.templateCell(models.YearCurrent, 1, 2, 2)
	assert.Equal(t, 1, stored.LessonSlots.IndexOf(lesson.ID))
	require.NotNil(t, stored.TeacherSlot)
	assert.Equal(t, shift.ID, *stored.TeacherSlot)

	_, err = e.templates.Save(ctx, dto.SaveTemplateRequest{
		YearTag: models.YearCurrent,
		Pairs:   []models.SlotPair{{CellID: room3.ID, Slot: 0, RefID: int64Ptr(lesson.ID)}},
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateSlot))
	assert.Equal(t, -1, e.templateCell(models.YearCurrent, 1, 2, 3).LessonSlots.IndexOf(lesson.ID))

	saved, err = e.templates.Save(ctx, dto.SaveTemplateRequest{
		YearTag: models.YearCurrent,
		Pairs: []models.SlotPair{
			{CellID: room2.ID, Slot: 1},
			{CellID: room3.ID, Slot: 0, RefID: int64Ptr(lesson.ID)},
		},
	})
	require.NoError(t, err)
	assert.Len(t, saved, 2)
	assert.Equal(t, 0, e.templateCell(models.YearCurrent, 1, 2, 3).LessonSlots.IndexOf(lesson.ID))
	assert.Empty(t, e.templateCell(models.YearCurrent, 1, 2, 2).LessonSlots.IDs())
}

func TestGridTemplateSaveRejectsInvalidPairs(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	ctx := context.Background()
	lesson := e.addLessonAssignment(models.WeeklyLessonAssignment{
		PersonID: 1, Subject: "math", Weekday: 1, Timeslot: 2, Grade: 4,
		StartDate: day("2024-04-01"), EndDate: day("2025-02-28"),
	})
	wrongSlot := e.templateCell(models.YearCurrent, 1, 3, 1)
	nextYear := e.templateCell(models.YearNext, 1, 2, 1)
	current := e.templateCell(models.YearCurrent, 1, 2, 1)

	cases := []struct {
		name string
		req  dto.SaveTemplateRequest
		want *appErrors.Error
	}{
		{
			name: "timeslot mismatch",
			req:  dto.SaveTemplateRequest{YearTag: models.YearCurrent, Pairs: []models.SlotPair{{CellID: wrongSlot.ID, Slot: 0, RefID: int64Ptr(lesson.ID)}}},
			want: appErrors.ErrValidation,
		},
		{
			name: "cell of other year",
			req:  dto.SaveTemplateRequest{YearTag: models.YearCurrent, Pairs: []models.SlotPair{{CellID: nextYear.ID, Slot: 0, RefID: int64Ptr(lesson.ID)}}},
			want: appErrors.ErrValidation,
		},
		{
			name: "unknown assignment",
			req:  dto.SaveTemplateRequest{YearTag: models.YearCurrent, Pairs: []models.SlotPair{{CellID: current.ID, Slot: 0, RefID: int64Ptr(9999)}}},
			want: appErrors.ErrNotFound,
		},
		{
			name: "slot out of range",
			req:  dto.SaveTemplateRequest{YearTag: models.YearCurrent, Pairs: []models.SlotPair{{CellID: current.ID, Slot: 5}}},
			want: appErrors.ErrValidation,
		},
		{
			name: "bad year tag",
			req:  dto.SaveTemplateRequest{YearTag: "last", Pairs: []models.SlotPair{{CellID: current.ID, Slot: 0}}},
			want: appErrors.ErrValidation,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.templates.Save(ctx, tc.req)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, tc.want), err.Error())
		})
	}
	assert.Empty(t, e.templateCell(models.YearCurrent, 1, 2, 1).LessonSlots.IDs())
}

func TestGridTemplateSaveRejectsPlacementInBothYears(t *testing.T) {
	e := newSeededEngine(day("2024-04-01"))
	ctx := context.Background()
	lesson := e.addLessonAssignment(models.WeeklyLessonAssignment{
		PersonID: 1, Subject: "math", Weekday: 1, Timeslot: 2, Grade: 4,
		StartDate: day("2024-04-01"), EndDate: day("2025-02-28"),
	})
	current := e.templateCell(models.YearCurrent, 1, 2, 1)
	next := e.templateCell(models.YearNext, 1, 2, 1)

	_, err := e.templates.Save(ctx, dto.SaveTemplateRequest{
		YearTag: models.YearCurrent,
		Pairs:   []models.SlotPair{{CellID: current.ID, Slot: 0, RefID: int64Ptr(lesson.ID)}},
	})
	require.NoError(t, err)

	_, err = e.templates.Save(ctx, dto.SaveTemplateRequest{
		YearTag: models.YearNext,
		Pairs:   []models.SlotPair{{CellID: next.ID, Slot: 0, RefID: int64Ptr(lesson.ID)}},
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicateSlot))
	assert.Equal(t, -1, e.templateCell(models.YearNext, 1, 2, 1).LessonSlots.IndexOf(lesson.ID))

	placed, err := memTemplates{e.db}.FindByLessonAssignment(ctx, nil, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, models.YearCurrent, placed.YearTag)
}
