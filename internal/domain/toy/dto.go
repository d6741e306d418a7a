package toy

import (
	"time"

	"github.com/google/uuid"
)

// CreateToyRequest for POST /toys
type CreateToyRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=200"`
	Description string   `json:"description" validate:"required,min=10,max=5000"`
	CategoryID  string   `json:"category_id" validate:"omitempty,uuid"`
	Condition   string   `json:"condition" validate:"required,toy_condition"`
	Brand       string   `json:"brand" validate:"omitempty,max=100"`
	AgeMin      *int     `json:"age_min" validate:"omitempty,gte=0,lte=18"`
	AgeMax      *int     `json:"age_max" validate:"omitempty,gte=0,lte=18"`
	DailyRate   *float64 `json:"daily_rate" validate:"omitempty,gte=0"`
	City        string   `json:"city" validate:"omitempty,max=100"`
}

// UpdateToyRequest for PUT /toys/{id}
type UpdateToyRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=200"`
	Description string   `json:"description" validate:"required,min=10,max=5000"`
	CategoryID  string   `json:"category_id" validate:"omitempty,uuid"`
	Condition   string   `json:"condition" validate:"required,toy_condition"`
	Brand       string   `json:"brand" validate:"omitempty,max=100"`
	AgeMin      *int     `json:"age_min" validate:"omitempty,gte=0,lte=18"`
	AgeMax      *int     `json:"age_max" validate:"omitempty,gte=0,lte=18"`
	DailyRate   *float64 `json:"daily_rate" validate:"omitempty,gte=0"`
	City        string   `json:"city" validate:"omitempty,max=100"`
}

// ToyResponse is the caller-facing projection of a toy
type ToyResponse struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	OwnerName    string    `json:"owner_name,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CategoryID   string    `json:"category_id,omitempty"`
	CategoryName string    `json:"category_name,omitempty"`
	Condition    string    `json:"condition"`
	Brand        string    `json:"brand,omitempty"`
	AgeMin       *int      `json:"age_min,omitempty"`
	AgeMax       *int      `json:"age_max,omitempty"`
	DailyRate    *float64  `json:"daily_rate,omitempty"`
	City         string    `json:"city,omitempty"`
	Status       string    `json:"status"`
	ViewCount    int       `json:"view_count"`
	PhotoURLs    []string  `json:"photo_urls,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToResponse converts a Toy to its API projection
func (t *Toy) ToResponse() *ToyResponse {
	resp := &ToyResponse{
		ID:           t.ID,
		OwnerID:      t.OwnerID,
		OwnerName:    t.OwnerName,
		Name:         t.Name,
		Description:  t.Description,
		CategoryName: t.CategoryName,
		Condition:    string(t.Condition),
		Brand:        t.Brand.String,
		City:         t.City.String,
		Status:       string(t.Status),
		ViewCount:    t.ViewCount,
		PhotoURLs:    t.PhotoURLs,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}

	if t.CategoryID.Valid {
		resp.CategoryID = t.CategoryID.UUID.String()
	}
	if t.AgeMin.Valid {
		v := int(t.AgeMin.Int32)
		resp.AgeMin = &v
	}
	if t.AgeMax.Valid {
		v := int(t.AgeMax.Int32)
		resp.AgeMax = &v
	}
	if t.DailyRate.Valid {
		v := t.DailyRate.Float64
		resp.DailyRate = &v
	}

	return resp
}
