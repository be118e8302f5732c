package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonOccurrenceRepositoryListUnboundPassesRegularFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonOccurrenceRepository(db)
	date := time.Date(2024, time.April, 8, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM lesson_occurrences o\s+WHERE o.is_absent = FALSE\s+AND \(\$2 OR o.is_regular = FALSE OR o.is_rescheduled = TRUE\)`).
		WithArgs(date, false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	occurrences, err := repo.ListUnbound(context.Background(), nil, date, false)
	require.NoError(t, err)
	assert.Empty(t, occurrences)

	mock.ExpectQuery(`FROM lesson_occurrences o`).
		WithArgs(date, true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = repo.ListUnbound(context.Background(), nil, date, true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonOccurrenceRepositoryCountForIntensive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonOccurrenceRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM lesson_occurrences WHERE intensive_assignment_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	count, err := repo.CountForIntensive(context.Background(), nil, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
