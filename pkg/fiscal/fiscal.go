// Package fiscal resolves calendar dates against the school's bookkeeping years.
//
// Two conventions coexist: shift bookkeeping (and billing) runs March 1 to the
// end of February, academic testing runs April 1 to March 31.
package fiscal

import (
	"time"
)

// Grade tiers. Tier 13 is the terminal "repeat" tier that never advances.
const (
	MinTier      = 1
	MaxGrade     = 12
	TerminalTier = 13
)

// DateLayout is the wire format used for calendar dates.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar date, expressed at UTC midnight.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// ShiftYearBounds returns the March-to-February year containing date.
func ShiftYearBounds(date time.Time) (time.Time, time.Time) {
	return yearBounds(Day(date), time.March)
}

// AcademicYearBounds returns the April-to-March year containing date.
func AcademicYearBounds(date time.Time) (time.Time, time.Time) {
	return yearBounds(Day(date), time.April)
}

// ShiftYear labels the shift year containing date by its starting calendar year.
func ShiftYear(date time.Time) int {
	start, _ := ShiftYearBounds(date)
	return start.Year()
}

// NextShiftYearBounds returns the shift year following the one containing date.
func NextShiftYearBounds(date time.Time) (time.Time, time.Time) {
	_, end := ShiftYearBounds(date)
	return ShiftYearBounds(end.AddDate(0, 0, 1))
}

func yearBounds(d time.Time, startMonth time.Month) (time.Time, time.Time) {
	year := d.Year()
	if d.Month() < startMonth {
		year--
	}
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, -1)
	return start, end
}

// Weekday maps a date to 1 (Monday) .. 7 (Sunday).
func Weekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// IsSchoolDay reports whether the date falls Monday to Friday.
func IsSchoolDay(date time.Time) bool {
	return Weekday(date) <= 5
}

// EachDay calls fn for every date in [start, end]. Iteration stops at the first error.
func EachDay(start, end time.Time, fn func(time.Time) error) error {
	for d := Day(start); !d.After(Day(end)); d = d.AddDate(0, 0, 1) {
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

// MonthBounds returns the first and last day of the month containing date.
func MonthBounds(date time.Time) (time.Time, time.Time) {
	d := Day(date)
	start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

// WeekBounds returns the Monday and Sunday of the week containing date.
func WeekBounds(date time.Time) (time.Time, time.Time) {
	d := Day(date)
	monday := d.AddDate(0, 0, -(Weekday(d) - 1))
	return monday, monday.AddDate(0, 0, 6)
}

// NextTier advances a grade tier by one, holding the terminal tier.
func NextTier(grade int) int {
	if grade >= TerminalTier {
		return TerminalTier
	}
	return grade + 1
}

// GradeFromBirthDate derives the school grade (1..12) for today from a birth date.
// Children born April to December start school in the same cohort as their birth
// year, January to March births join the previous one. ok is false when the age
// falls outside elementary through high school.
func GradeFromBirthDate(birth, today time.Time) (int, bool) {
	currentYear := today.Year()
	if today.Month() < time.March {
		currentYear--
	}
	cohort := birth.Year()
	if birth.Month() < time.April {
		cohort--
	}
	grade := currentYear - cohort - 6
	if grade < MinTier || grade > MaxGrade {
		return 0, false
	}
	return grade, true
}

// Overlaps reports whether [aStart, aEnd] and [bStart, bEnd] share at least one day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !Day(aStart).After(Day(bEnd)) && !Day(bStart).After(Day(aEnd))
}
