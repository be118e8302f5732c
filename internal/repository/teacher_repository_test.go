package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-shift-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTeacherRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "active", "created_at", "updated_at"}).
		AddRow(1, "Sato", true, now, now).
		AddRow(2, "Suzuki", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, active, created_at, updated_at FROM teachers WHERE active = TRUE ORDER BY id ASC")).
		WillReturnRows(rows)

	teachers, err := repo.ListActive(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "Suzuki", teachers[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery("FROM teachers WHERE id = \\$1").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "active", "created_at", "updated_at"}))

	_, err := repo.Get(context.Background(), nil, 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	person := &models.Person{ID: 4, Grade: 7, RolledForward: true}
	mock.ExpectExec("UPDATE persons SET grade").
		WithArgs(7, false, false, true, sqlmock.AnyArg(), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), nil, person))
	assert.False(t, person.UpdatedAt.IsZero())

	mock.ExpectExec("UPDATE persons SET grade").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(context.Background(), nil, &models.Person{ID: 5}), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRolloverRunRepositoryLifecycle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRolloverRunRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM rollover_runs WHERE fiscal_year = \\$1 AND status = 'COMPLETED'\\)").
		WithArgs(2025).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	done, err := repo.HasCompleted(ctx, nil, 2025)
	require.NoError(t, err)
	assert.False(t, done)

	run := &models.RolloverRun{FiscalYear: 2025, Status: models.RolloverStatusRunning}
	mock.ExpectQuery("INSERT INTO rollover_runs").
		WithArgs(2025, models.RolloverStatusRunning, sqlmock.AnyArg(), nil, sqlmock.AnyArg(), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	require.NoError(t, repo.Create(ctx, nil, run))
	assert.Equal(t, int64(11), run.ID)
	assert.Equal(t, "{}", string(run.Summary))

	run.Status = models.RolloverStatusCompleted
	mock.ExpectExec("UPDATE rollover_runs SET status = \\$2").
		WithArgs(int64(11), models.RolloverStatusCompleted, sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Finish(ctx, nil, run))
	require.NotNil(t, run.FinishedAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rollover_runs ORDER BY started_at DESC LIMIT 20")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "fiscal_year", "status", "summary", "error", "started_at", "finished_at"}).
			AddRow(11, 2025, "COMPLETED", []byte(`{"fiscal_year":2025}`), nil, time.Now(), time.Now()))
	runs, err := repo.List(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RolloverStatusCompleted, runs[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
