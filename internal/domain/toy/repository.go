package toy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Filter represents search filters
type Filter struct {
	Query      *string
	CategoryID *uuid.UUID
	OwnerID    *uuid.UUID
	Condition  *Condition
	Status     *Status
	City       *string
	RateMin    *float64
	RateMax    *float64
	AgeYears   *int
}

// SortBy represents sort options
type SortBy string

const (
	SortByNewest   SortBy = "newest"
	SortByRateAsc  SortBy = "rate_asc"
	SortByRateDesc SortBy = "rate_desc"
	SortByPopular  SortBy = "popular"
)

// Pagination for listing
type Pagination struct {
	Page  int
	Limit int
}

// Repository defines toy data access interface
type Repository interface {
	Create(ctx context.Context, toy *Toy) error
	GetByID(ctx context.Context, id uuid.UUID) (*Toy, error)
	Update(ctx context.Context, toy *Toy) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *Filter, sortBy SortBy, pagination *Pagination) ([]*Toy, int, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error

	// Transactional accessors used by the booking lifecycle.
	// GetByIDForUpdateTx locks the toy row for the duration of the
	// surrounding transaction, serializing concurrent bookings per toy.
	GetByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Toy, error)
	UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status) error

	// Photos
	AddPhoto(ctx context.Context, photo *Photo) error
	ListPhotos(ctx context.Context, toyID uuid.UUID) ([]*Photo, error)
	DeletePhoto(ctx context.Context, toyID, photoID uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new toy repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const toySelectColumns = `
	t.id, t.owner_id, t.name, t.description, t.category_id, t.condition, t.brand,
	t.age_min, t.age_max, t.daily_rate, t.city, t.status, t.is_active,
	t.view_count, t.created_at, t.updated_at
`

func (r *repository) Create(ctx context.Context, toy *Toy) error {
	query := `
		INSERT INTO toys (
			id, owner_id, name, description, category_id, condition, brand,
			age_min, age_max, daily_rate, city, status, is_active, view_count
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		toy.ID, toy.OwnerID, toy.Name, toy.Description, toy.CategoryID, toy.Condition, toy.Brand,
		toy.AgeMin, toy.AgeMax, toy.DailyRate, toy.City, toy.Status, toy.IsActive, toy.ViewCount,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" && strings.Contains(pqErr.Constraint, "category") {
			return ErrInvalidCategory
		}
		return fmt.Errorf("toy repository create: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Toy, error) {
	query := `
		SELECT ` + toySelectColumns + `,
		       u.name AS owner_name,
		       COALESCE(c.name, '') AS category_name
		FROM toys t
		JOIN users u ON u.id = t.owner_id
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.id = $1 AND t.is_active = true
	`

	var toy Toy
	err := r.db.GetContext(ctx, &toy, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &toy, nil
}

func (r *repository) Update(ctx context.Context, toy *Toy) error {
	query := `
		UPDATE toys
		SET name = $2, description = $3, category_id = $4, condition = $5, brand = $6,
		    age_min = $7, age_max = $8, daily_rate = $9, city = $10, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		toy.ID, toy.Name, toy.Description, toy.CategoryID, toy.Condition, toy.Brand,
		toy.AgeMin, toy.AgeMax, toy.DailyRate, toy.City,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" && strings.Contains(pqErr.Constraint, "category") {
			return ErrInvalidCategory
		}
		return fmt.Errorf("toy repository update: %w", err)
	}

	return nil
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE toys SET is_active = false, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *repository) List(ctx context.Context, filter *Filter, sortBy SortBy, pagination *Pagination) ([]*Toy, int, error) {
	conditions := []string{"t.is_active = true"}
	args := []interface{}{}
	argIndex := 1

	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(t.name ILIKE $%d OR t.description ILIKE $%d)",
			argIndex, argIndex,
		))
		args = append(args, "%"+*filter.Query+"%")
		argIndex++
	}

	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("t.category_id = $%d", argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	if filter.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("t.owner_id = $%d", argIndex))
		args = append(args, *filter.OwnerID)
		argIndex++
	}

	if filter.Condition != nil {
		conditions = append(conditions, fmt.Sprintf("t.condition = $%d", argIndex))
		args = append(args, *filter.Condition)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.City != nil && *filter.City != "" {
		conditions = append(conditions, fmt.Sprintf("t.city ILIKE $%d", argIndex))
		args = append(args, "%"+*filter.City+"%")
		argIndex++
	}

	if filter.RateMin != nil {
		conditions = append(conditions, fmt.Sprintf("(t.daily_rate >= $%d OR t.daily_rate IS NULL)", argIndex))
		args = append(args, *filter.RateMin)
		argIndex++
	}

	if filter.RateMax != nil {
		conditions = append(conditions, fmt.Sprintf("(t.daily_rate <= $%d OR t.daily_rate IS NULL)", argIndex))
		args = append(args, *filter.RateMax)
		argIndex++
	}

	if filter.AgeYears != nil {
		conditions = append(conditions, fmt.Sprintf(
			"(t.age_min IS NULL OR t.age_min <= $%d) AND (t.age_max IS NULL OR t.age_max >= $%d)",
			argIndex, argIndex,
		))
		args = append(args, *filter.AgeYears)
		argIndex++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM toys t %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	var orderBy string
	switch sortBy {
	case SortByRateAsc:
		orderBy = "t.daily_rate ASC NULLS FIRST"
	case SortByRateDesc:
		orderBy = "t.daily_rate DESC NULLS LAST"
	case SortByPopular:
		orderBy = "t.view_count DESC"
	default:
		orderBy = "t.created_at DESC"
	}

	offset := (pagination.Page - 1) * pagination.Limit
	listQuery := fmt.Sprintf(`
		SELECT %s,
		       u.name AS owner_name,
		       COALESCE(c.name, '') AS category_name
		FROM toys t
		JOIN users u ON u.id = t.owner_id
		LEFT JOIN categories c ON c.id = t.category_id
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, toySelectColumns, where, orderBy, argIndex, argIndex+1)
	args = append(args, pagination.Limit, offset)

	var toys []*Toy
	if err := r.db.SelectContext(ctx, &toys, listQuery, args...); err != nil {
		return nil, 0, err
	}

	return toys, total, nil
}

func (r *repository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE toys SET view_count = view_count + 1 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// GetByIDForUpdateTx loads a toy with a row lock, without hiding
/// soft-deleted rows: the booking service distinguishes missing from inactive
func (r *repository) GetByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Toy, error) {
	query := `
		SELECT id, owner_id, name, description, category_id, condition, brand,
		       age_min, age_max, daily_rate, city, status, is_active,
		       view_count, created_at, updated_at
		FROM toys
		WHERE id = $1
		FOR UPDATE
	`

	var toy Toy
	err := tx.GetContext(ctx, &toy, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &toy, nil
}

func (r *repository) UpdateStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status) error {
	query := `UPDATE toys SET status = $2, updated_at = NOW() WHERE id = $1`
	_, err := tx.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("toy repository update status: %w", err)
	}
	return nil
}

func (r *repository) AddPhoto(ctx context.Context, photo *Photo) error {
	query := `
		INSERT INTO toy_photos (id, toy_id, url, thumbnail_url, position, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

	_, err := r.db.ExecContext(ctx, query, photo.ID, photo.ToyID, photo.URL, photo.ThumbnailURL, photo.Position)
	if err != nil {
		return fmt.Errorf("toy repository add photo: %w", err)
	}

	return nil
}

func (r *repository) ListPhotos(ctx context.Context, toyID uuid.UUID) ([]*Photo, error) {
	query := `
		SELECT id, toy_id, url, thumbnail_url, position, created_at
		FROM toy_photos
		WHERE toy_id = $1
		ORDER BY position, created_at
	`

	var photos []*Photo
	if err := r.db.SelectContext(ctx, &photos, query, toyID); err != nil {
		return nil, fmt.Errorf("toy repository list photos: %w", err)
	}

	return photos, nil
}

func (r *repository) DeletePhoto(ctx context.Context, toyID, photoID uuid.UUID) error {
	query := `DELETE FROM toy_photos WHERE id = $1 AND toy_id = $2`
	res, err := r.db.ExecContext(ctx, query, photoID, toyID)
	if err != nil {
		return fmt.Errorf("toy repository delete photo: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrToyNotFound
	}

	return nil
}
