package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/tutor-shift-api/internal/models"
)

const rolloverRunColumns = `id, fiscal_year, status, summary, error, started_at, finished_at`

// RolloverRunRepository records fiscal rollover executions.
type RolloverRunRepository struct {
	db *sqlx.DB
}

// NewRolloverRunRepository constructs the repository.
func NewRolloverRunRepository(db *sqlx.DB) *RolloverRunRepository {
	return &RolloverRunRepository{db: db}
}

func (r *RolloverRunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a run and populates its id.
func (r *RolloverRunRepository) Create(ctx context.Context, exec sqlx.ExtContext, run *models.RolloverRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if len(run.Summary) == 0 {
		run.Summary = types.JSONText(`{}`)
	}
	const query = `INSERT INTO rollover_runs (fiscal_year, status, summary, error, started_at, finished_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := sqlx.GetContext(ctx, r.exec(exec), &run.ID, query,
		run.FiscalYear, run.Status, run.Summary, run.Error, run.StartedAt, run.FinishedAt,
	); err != nil {
		return fmt.Errorf("create rollover run: %w", err)
	}
	return nil
}

// Finish records the outcome of a run.
func (r *RolloverRunRepository) Finish(ctx context.Context, exec sqlx.ExtContext, run *models.RolloverRun) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	const query = `UPDATE rollover_runs SET status = $2, summary = $3, error = $4, finished_at = $5 WHERE id = $1`
	result, err := r.exec(exec).ExecContext(ctx, query, run.ID, run.Status, run.Summary, run.Error, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("finish rollover run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check finished rollover rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HasCompleted reports whether a completed run exists for a fiscal year.
func (r *RolloverRunRepository) HasCompleted(ctx context.Context, exec sqlx.ExtContext, fiscalYear int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM rollover_runs WHERE fiscal_year = $1 AND status = 'COMPLETED')`
	var done bool
	if err := sqlx.GetContext(ctx, r.exec(exec), &done, query, fiscalYear); err != nil {
		return false, fmt.Errorf("check completed rollover: %w", err)
	}
	return done, nil
}

// List returns the most recent runs first.
func (r *RolloverRunRepository) List(ctx context.Context, exec sqlx.ExtContext, limit int) ([]models.RolloverRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM rollover_runs ORDER BY started_at DESC LIMIT %d`, rolloverRunColumns, limit)
	var runs []models.RolloverRun
	if err := sqlx.SelectContext(ctx, r.exec(exec), &runs, query); err != nil {
		return nil, fmt.Errorf("list rollover runs: %w", err)
	}
	return runs, nil
}
