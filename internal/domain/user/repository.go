package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository defines user data access interface
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// IncrementToysListed adjusts the listed-toys counter by delta.
	IncrementToysListed(ctx context.Context, id uuid.UUID, delta int) error
	// IncrementToysBorrowedTx bumps the borrowed-toys counter inside an
	// existing transaction. Called once per booking completion.
	IncrementToysBorrowedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
}

// repository implements Repository
type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const userSelectColumns = `
	id, email, password_hash, name, role,
	phone, city, bio, avatar_url,
	toys_listed, toys_borrowed,
	created_at, updated_at
`

// Create creates a new user
func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, name, role, phone, city, bio, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Role,
		user.Phone,
		user.City,
		user.Bio,
		user.AvatarURL,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("user repository create: %w", err)
	}

	return nil
}

// GetByID returns user by ID, nil when absent
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userSelectColumns + ` FROM users WHERE id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// GetByEmail returns user by email, nil when absent
func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userSelectColumns + ` FROM users WHERE email = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// UpdateProfile updates the mutable profile fields
func (r *repository) UpdateProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET name = $2, phone = $3, city = $4, bio = $5, avatar_url = $6, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Phone,
		user.City,
		user.Bio,
		user.AvatarURL,
	)
	if err != nil {
		return fmt.Errorf("user repository update profile: %w", err)
	}

	return nil
}

// UpdatePassword updates the password hash
func (r *repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("user repository update password: %w", err)
	}

	return nil
}

// IncrementToysListed adjusts the listed-toys counter
func (r *repository) IncrementToysListed(ctx context.Context, id uuid.UUID, delta int) error {
	query := `UPDATE users SET toys_listed = toys_listed + $2, updated_at = NOW() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("user repository increment toys listed: %w", err)
	}

	return nil
}

// IncrementToysBorrowedTx bumps the borrowed-toys counter inside a transaction
func (r *repository) IncrementToysBorrowedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	query := `UPDATE users SET toys_borrowed = toys_borrowed + 1, updated_at = NOW() WHERE id = $1`

	_, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("user repository increment toys borrowed: %w", err)
	}

	return nil
}
