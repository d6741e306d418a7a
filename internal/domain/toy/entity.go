package toy

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status represents toy availability (matches toy_status enum)
type Status string

const (
	StatusAvailable Status = "available"
	StatusBorrowed  Status = "borrowed"
)

// Condition represents the physical condition of a toy
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
)

// Toy represents a toy listing (matches actual toys table)
type Toy struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	// Owner (FK to users)
	OwnerID uuid.UUID `db:"owner_id"`

	// Basic info
	Name        string         `db:"name"`
	Description string         `db:"description"`
	CategoryID  uuid.NullUUID  `db:"category_id"`
	Condition   Condition      `db:"condition"`
	Brand       sql.NullString `db:"brand"`

	// Recommended age range in years
	AgeMin sql.NullInt32 `db:"age_min"`
	AgeMax sql.NullInt32 `db:"age_max"`

	// Lending terms
	DailyRate sql.NullFloat64 `db:"daily_rate"`
	City      sql.NullString  `db:"city"`

	// Availability
	Status   Status `db:"status"`
	IsActive bool   `db:"is_active"`

	// Stats
	ViewCount int `db:"view_count"`

	// Joined data (not in DB, populated by queries)
	OwnerName    string   `db:"owner_name"`
	CategoryName string   `db:"category_name"`
	PhotoURLs    []string `db:"-"`
}

// Photo represents one stored toy photo
type Photo struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ToyID        uuid.UUID `db:"toy_id" json:"toy_id"`
	URL          string    `db:"url" json:"url"`
	ThumbnailURL string    `db:"thumbnail_url" json:"thumbnail_url"`
	Position     int       `db:"position" json:"position"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
