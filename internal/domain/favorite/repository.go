package favorite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// FavoriteToy is one favorited listing with a toy summary joined in
type FavoriteToy struct {
	ToyID     uuid.UUID `db:"toy_id" json:"toy_id"`
	Name      string    `db:"name" json:"name"`
	Status    string    `db:"status" json:"status"`
	City      *string   `db:"city" json:"city,omitempty"`
	DailyRate *float64  `db:"daily_rate" json:"daily_rate,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"favorited_at"`
}

// Repository defines favorite data access interface
type Repository interface {
	// Add is idempotent: favoriting twice is a no-op.
	Add(ctx context.Context, userID, toyID uuid.UUID) error
	Remove(ctx context.Context, userID, toyID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*FavoriteToy, error)
	Exists(ctx context.Context, userID, toyID uuid.UUID) (bool, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new favorite repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Add(ctx context.Context, userID, toyID uuid.UUID) error {
	query := `
		INSERT INTO favorites (user_id, toy_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, toy_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, userID, toyID)
	if err != nil {
		return fmt.Errorf("favorite repository add: %w", err)
	}

	return nil
}

func (r *repository) Remove(ctx context.Context, userID, toyID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND toy_id = $2`, userID, toyID)
	if err != nil {
		return fmt.Errorf("favorite repository remove: %w", err)
	}

	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*FavoriteToy, error) {
	query := `
		SELECT f.toy_id, t.name, t.status, t.city, t.daily_rate, f.created_at
		FROM favorites f
		JOIN toys t ON t.id = f.toy_id
		WHERE f.user_id = $1 AND t.is_active = true
		ORDER BY f.created_at DESC
	`

	var favorites []*FavoriteToy
	if err := r.db.SelectContext(ctx, &favorites, query, userID); err != nil {
		return nil, fmt.Errorf("favorite repository list: %w", err)
	}

	return favorites, nil
}

func (r *repository) Exists(ctx context.Context, userID, toyID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND toy_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, userID, toyID); err != nil {
		return false, fmt.Errorf("favorite repository exists: %w", err)
	}

	return exists, nil
}
