package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotAuthor       = errors.New("only the author may delete a comment")
)

// Repository defines comment data access interface
type Repository interface {
	Create(ctx context.Context, comment *Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Comment, error)
	ListByToy(ctx context.Context, toyID uuid.UUID, page, limit int) ([]*Comment, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new comment repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, comment *Comment) error {
	query := `
		INSERT INTO comments (id, toy_id, author_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		comment.ID,
		comment.ToyID,
		comment.AuthorID,
		comment.Body,
	).Scan(&comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("comment repository create: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Comment, error) {
	query := `
		SELECT c.id, c.toy_id, c.author_id, c.body, c.created_at, c.updated_at,
		       u.name AS author_name
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.id = $1
	`

	var comment Comment
	err := r.db.GetContext(ctx, &comment, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &comment, nil
}

func (r *repository) ListByToy(ctx context.Context, toyID uuid.UUID, page, limit int) ([]*Comment, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM comments WHERE toy_id = $1`, toyID); err != nil {
		return nil, 0, fmt.Errorf("comment repository count: %w", err)
	}

	query := `
		SELECT c.id, c.toy_id, c.author_id, c.body, c.created_at, c.updated_at,
		       u.name AS author_name
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.toy_id = $1
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3
	`

	var comments []*Comment
	offset := (page - 1) * limit
	if err := r.db.SelectContext(ctx, &comments, query, toyID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("comment repository list: %w", err)
	}

	return comments, total, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("comment repository delete: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("comment repository delete: %w", err)
	}
	if affected == 0 {
		return ErrCommentNotFound
	}

	return nil
}
