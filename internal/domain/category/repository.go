package category

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

// Repository reads the category reference data. Categories are edited
// only through admin CRUD, which lives outside this service.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListAll(ctx context.Context) ([]Category, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	categories := make([]Category, 0)
	err := r.db.SelectContext(ctx2, &categories, `
		SELECT id, slug, name, parent_id
		FROM categories
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list categories", ErrInternal)
	}

	return categories, nil
}
