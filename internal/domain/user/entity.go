package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system (matches user_role enum)
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// User represents a user account (matches actual users table)
type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	Role         Role      `db:"role"`

	// Profile
	Phone     sql.NullString `db:"phone"`
	City      sql.NullString `db:"city"`
	Bio       sql.NullString `db:"bio"`
	AvatarURL sql.NullString `db:"avatar_url"`

	// Lending stats
	ToysListed   int `db:"toys_listed"`
	ToysBorrowed int `db:"toys_borrowed"`

	// Timestamps
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsAdmin returns true if user is an admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicProfile is the caller-facing projection of a user
type PublicProfile struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	City         string    `json:"city,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	ToysListed   int       `json:"toys_listed"`
	ToysBorrowed int       `json:"toys_borrowed"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToPublicProfile converts a User to its public projection
func (u *User) ToPublicProfile() *PublicProfile {
	return &PublicProfile{
		ID:           u.ID,
		Name:         u.Name,
		City:         u.City.String,
		Bio:          u.Bio.String,
		AvatarURL:    u.AvatarURL.String,
		ToysListed:   u.ToysListed,
		ToysBorrowed: u.ToysBorrowed,
		CreatedAt:    u.CreatedAt,
	}
}
