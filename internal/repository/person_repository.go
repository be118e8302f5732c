package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-shift-api/internal/models"
)

const personColumns = `id, name, grade, birth_date, withdrawn, planning_to_withdraw, rolled_forward, created_at, updated_at`

// PersonRepository reads and updates enrolled person records.
type PersonRepository struct {
	db *sqlx.DB
}

// NewPersonRepository constructs the repository.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

func (r *PersonRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Get fetches a person by id.
func (r *PersonRepository) Get(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE id = $1`
	var person models.Person
	if err := sqlx.GetContext(ctx, r.exec(exec), &person, query, id); err != nil {
		return nil, err
	}
	return &person, nil
}

// ListEnrolled returns persons that have not withdrawn.
func (r *PersonRepository) ListEnrolled(ctx context.Context, exec sqlx.ExtContext) ([]models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE withdrawn = FALSE ORDER BY id ASC`
	var persons []models.Person
	if err := sqlx.SelectContext(ctx, r.exec(exec), &persons, query); err != nil {
		return nil, fmt.Errorf("list enrolled persons: %w", err)
	}
	return persons, nil
}

// Update persists the scheduling-relevant flags of a person.
func (r *PersonRepository) Update(ctx context.Context, exec sqlx.ExtContext, person *models.Person) error {
	person.UpdatedAt = time.Now().UTC()
	const query = `UPDATE persons SET grade = :grade, withdrawn = :withdrawn, planning_to_withdraw = :planning_to_withdraw,
rolled_forward = :rolled_forward, updated_at = :updated_at WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, person)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated person rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
