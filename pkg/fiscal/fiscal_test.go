package fiscal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestShiftYearBounds(t *testing.T) {
	cases := []struct {
		name  string
		in    time.Time
		start time.Time
		end   time.Time
	}{
		{"spring", date(2024, time.May, 6), date(2024, time.March, 1), date(2025, time.February, 28)},
		{"leap february", date(2024, time.February, 29), date(2023, time.March, 1), date(2024, time.February, 29)},
		{"first day", date(2024, time.March, 1), date(2024, time.March, 1), date(2025, time.February, 28)},
		{"january", date(2025, time.January, 15), date(2024, time.March, 1), date(2025, time.February, 28)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := ShiftYearBounds(tc.in)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
		})
	}
}

func TestAcademicYearBoundsDiffersFromShiftYear(t *testing.T) {
	march := date(2024, time.March, 15)

	start, end := AcademicYearBounds(march)
	assert.Equal(t, date(2023, time.April, 1), start)
	assert.Equal(t, date(2024, time.March, 31), end)

	shiftStart, _ := ShiftYearBounds(march)
	assert.Equal(t, date(2024, time.March, 1), shiftStart)
}

func TestNextShiftYearBounds(t *testing.T) {
	start, end := NextShiftYearBounds(date(2024, time.October, 1))
	assert.Equal(t, date(2025, time.March, 1), start)
	assert.Equal(t, date(2026, time.February, 28), end)
}

func TestWeekday(t *testing.T) {
	assert.Equal(t, 1, Weekday(date(2024, time.May, 6)))
	assert.Equal(t, 5, Weekday(date(2024, time.May, 10)))
	assert.Equal(t, 7, Weekday(date(2024, time.May, 12)))
	assert.False(t, IsSchoolDay(date(2024, time.May, 11)))
}

func TestEachDayInclusive(t *testing.T) {
	var mondays int
	err := EachDay(date(2024, time.April, 1), date(2024, time.June, 30), func(d time.Time) error {
		if Weekday(d) == 1 {
			mondays++
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 13, mondays)
}

func TestWeekAndMonthBounds(t *testing.T) {
	monday, sunday := WeekBounds(date(2024, time.May, 9))
	assert.Equal(t, date(2024, time.May, 6), monday)
	assert.Equal(t, date(2024, time.May, 12), sunday)

	first, last := MonthBounds(date(2024, time.February, 10))
	assert.Equal(t, date(2024, time.February, 1), first)
	assert.Equal(t, date(2024, time.February, 29), last)
}

func TestNextTierHoldsTerminal(t *testing.T) {
	assert.Equal(t, 5, NextTier(4))
	assert.Equal(t, 13, NextTier(12))
	assert.Equal(t, 13, NextTier(13))
}

func TestGradeFromBirthDate(t *testing.T) {
	today := date(2024, time.April, 10)

	grade, ok := GradeFromBirthDate(date(2017, time.May, 3), today)
	require.True(t, ok)
	assert.Equal(t, 1, grade)

	grade, ok = GradeFromBirthDate(date(2018, time.February, 3), today)
	require.True(t, ok)
	assert.Equal(t, 1, grade)

	grade, ok = GradeFromBirthDate(date(2006, time.June, 1), today)
	require.True(t, ok)
	assert.Equal(t, 12, grade)

	_, ok = GradeFromBirthDate(date(2020, time.June, 1), today)
	assert.False(t, ok)
}

func TestOverlaps(t *testing.T) {
	assert.True(t, Overlaps(date(2024, 4, 1), date(2024, 6, 30), date(2024, 6, 30), date(2024, 9, 1)))
	assert.False(t, Overlaps(date(2024, 4, 1), date(2024, 6, 29), date(2024, 6, 30), date(2024, 9, 1)))
}
