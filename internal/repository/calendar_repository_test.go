package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-shift-api/internal/models"
)

func TestCalendarRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)

	from := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC)
	closures := true
	rows := sqlmock.NewRows([]string{"id", "date", "title", "is_closure", "is_fixed", "created_at"}).
		AddRow(1, from.AddDate(0, 0, 28), "Showa Day", true, false, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM calendar_events WHERE 1=1 AND date >= $1 AND date <= $2 AND is_closure = $3 ORDER BY date ASC, id ASC")).
		WithArgs(from, to, true).
		WillReturnRows(rows)

	events, err := repo.List(context.Background(), nil, models.CalendarFilter{StartDate: &from, EndDate: &to, Closures: &closures})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].IsClosure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarRepositoryClosures(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCalendarRepository(db)
	date := time.Date(2024, time.April, 29, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM calendar_events WHERE date = \\$1 AND is_closure = TRUE\\)").
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	closed, err := repo.IsClosure(context.Background(), nil, date)
	require.NoError(t, err)
	assert.True(t, closed)

	mock.ExpectExec("DELETE FROM calendar_events WHERE date = \\$1 AND is_closure = FALSE").
		WithArgs(date).
		WillReturnResult(sqlmock.NewResult(0, 2))
	removed, err := repo.DeleteNonClosureOn(context.Background(), nil, date)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVocabularyRepositoryResetAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVocabularyRepository(db)

	mock.ExpectExec("UPDATE vocabulary_test_records SET test_date = NULL").
		WillReturnResult(sqlmock.NewResult(0, 4))
	reset, err := repo.ResetAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, reset)
	assert.NoError(t, mock.ExpectationsWereMet())
}
