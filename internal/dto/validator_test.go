package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorWeekdayTag(t *testing.T) {
	v := NewValidator()

	ok := CreateLessonAssignmentRequest{PersonID: 1, Subject: "math", Weekday: 5, Timeslot: 1, StartDate: "2024-04-01"}
	require.NoError(t, v.Struct(ok))

	bad := ok
	bad.Weekday = 8
	assert.Error(t, v.Struct(bad))

	bad = ok
	bad.StartDate = "01/04/2024"
	assert.Error(t, v.Struct(bad))
}

func TestValidatorYearTag(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Struct(InitializeTemplateRequest{YearTag: "next"}))
	assert.Error(t, v.Struct(InitializeTemplateRequest{YearTag: "previous"}))
}

func TestValidatorRescheduleRequiresSubjectWithPerson(t *testing.T) {
	v := NewValidator()
	person := int64(3)
	req := RescheduleRequest{Date: "2024-04-01", Room: 1, Timeslot: 2, PersonID: &person}
	assert.Error(t, v.Struct(req))
	req.Subject = "english"
	assert.NoError(t, v.Struct(req))
}
