package comment

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a flat comment under a toy listing
type Comment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ToyID     uuid.UUID `db:"toy_id" json:"toy_id"`
	AuthorID  uuid.UUID `db:"author_id" json:"author_id"`
	Body      string    `db:"body" json:"body"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Joined
	AuthorName string `db:"author_name" json:"author_name,omitempty"`
}
