package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrDuplicateSlug    = errors.New("category slug already exists")
)

// Repository for categories
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates categories repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// List returns all categories ordered by name
func (r *Repository) List(ctx context.Context) ([]*Category, error) {
	query := `SELECT id, name, slug, description, created_at, updated_at FROM categories ORDER BY name`

	var categories []*Category
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("category repository list: %w", err)
	}

	return categories, nil
}

// GetByID returns one category, nil when absent
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	query := `SELECT id, name, slug, description, created_at, updated_at FROM categories WHERE id = $1`

	var c Category
	err := r.db.GetContext(ctx, &c, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &c, nil
}

// Create inserts a category
func (r *Repository) Create(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (id, name, slug, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`

	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Slug, c.Description)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("category repository create: %w", err)
	}

	return nil
}

// Update renames a category
func (r *Repository) Update(ctx context.Context, c *Category) error {
	query := `UPDATE categories SET name = $2, slug = $3, description = $4, updated_at = NOW() WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Slug, c.Description)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("category repository update: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// Delete removes a category
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("category repository delete: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrCategoryNotFound
	}

	return nil
}
