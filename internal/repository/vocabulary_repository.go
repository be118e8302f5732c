package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// VocabularyRepository maintains vocabulary test tracking records.
type VocabularyRepository struct {
	db *sqlx.DB
}

// NewVocabularyRepository constructs the repository.
func NewVocabularyRepository(db *sqlx.DB) *VocabularyRepository {
	return &VocabularyRepository{db: db}
}

func (r *VocabularyRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ResetAll clears the stored date and scores of every record.
func (r *VocabularyRepository) ResetAll(ctx context.Context, exec sqlx.ExtContext) (int, error) {
	const query = `UPDATE vocabulary_test_records SET test_date = NULL, score = NULL, full_score = NULL
WHERE test_date IS NOT NULL OR score IS NOT NULL OR full_score IS NOT NULL`
	result, err := r.exec(exec).ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("reset vocabulary test records: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check reset vocabulary rows: %w", err)
	}
	return int(affected), nil
}
