package toy

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/toybox/toybox-api/internal/domain/user"
	"github.com/toybox/toybox-api/internal/pkg/imaging"
	"github.com/toybox/toybox-api/internal/pkg/storage"
)

const maxPhotosPerToy = 5

// Service handles toy catalog business logic
type Service struct {
	repo      Repository
	userRepo  user.Repository
	storage   storage.Storage
	processor *imaging.Processor
}

// NewService creates new toy service
func NewService(repo Repository, userRepo user.Repository, store storage.Storage, processor *imaging.Processor) *Service {
	return &Service{
		repo:      repo,
		userRepo:  userRepo,
		storage:   store,
		processor: processor,
	}
}

// Create lists a new toy owned by the caller
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *CreateToyRequest) (*Toy, error) {
	toy := &Toy{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Condition:   Condition(req.Condition),
		Brand:       sql.NullString{String: req.Brand, Valid: req.Brand != ""},
		City:        sql.NullString{String: req.City, Valid: req.City != ""},
		Status:      StatusAvailable,
		IsActive:    true,
	}

	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, ErrInvalidCategory
		}
		toy.CategoryID = uuid.NullUUID{UUID: categoryID, Valid: true}
	}
	applyOptionalFields(toy, req.AgeMin, req.AgeMax, req.DailyRate)

	if err := s.repo.Create(ctx, toy); err != nil {
		return nil, err
	}

	if err := s.userRepo.IncrementToysListed(ctx, ownerID, 1); err != nil {
		// Non-fatal: the counter drifts but the listing exists
		log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to bump toys_listed counter")
	}

	return s.Get(ctx, toy.ID, false)
}

// Get fetches a toy with photos, optionally counting the view
func (s *Service) Get(ctx context.Context, id uuid.UUID, countView bool) (*Toy, error) {
	toy, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if toy == nil {
		return nil, ErrToyNotFound
	}

	if countView {
		if err := s.repo.IncrementViewCount(ctx, id); err != nil {
			log.Warn().Err(err).Str("toy_id", id.String()).Msg("Failed to bump view count")
		}
	}

	photos, err := s.repo.ListPhotos(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, p := range photos {
		toy.PhotoURLs = append(toy.PhotoURLs, p.URL)
	}

	return toy, nil
}

// Update edits a listing; owner only
func (s *Service) Update(ctx context.Context, callerID, id uuid.UUID, req *UpdateToyRequest) (*Toy, error) {
	toy, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if toy == nil {
		return nil, ErrToyNotFound
	}
	if toy.OwnerID != callerID {
		return nil, ErrNotToyOwner
	}

	toy.Name = req.Name
	toy.Description = req.Description
	toy.Condition = Condition(req.Condition)
	toy.Brand = sql.NullString{String: req.Brand, Valid: req.Brand != ""}
	toy.City = sql.NullString{String: req.City, Valid: req.City != ""}
	toy.CategoryID = uuid.NullUUID{}
	if req.CategoryID != "" {
		categoryID, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return nil, ErrInvalidCategory
		}
		toy.CategoryID = uuid.NullUUID{UUID: categoryID, Valid: true}
	}
	applyOptionalFields(toy, req.AgeMin, req.AgeMax, req.DailyRate)

	if err := s.repo.Update(ctx, toy); err != nil {
		return nil, err
	}

	return s.Get(ctx, id, false)
}

// Delete soft-deletes a listing; owner only, not while borrowed
func (s *Service) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	toy, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if toy == nil {
		return ErrToyNotFound
	}
	if toy.OwnerID != callerID {
		return ErrNotToyOwner
	}
	if toy.Status == StatusBorrowed {
		return ErrToyBorrowed
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	if err := s.userRepo.IncrementToysListed(ctx, callerID, -1); err != nil {
		log.Warn().Err(err).Str("owner_id", callerID.String()).Msg("Failed to drop toys_listed counter")
	}

	return nil
}

// List searches listings with filters and pagination
func (s *Service) List(ctx context.Context, filter *Filter, sortBy SortBy, pagination *Pagination) ([]*Toy, int, error) {
	if pagination.Page <= 0 {
		pagination.Page = 1
	}
	if pagination.Limit <= 0 || pagination.Limit > 100 {
		pagination.Limit = 20
	}

	return s.repo.List(ctx, filter, sortBy, pagination)
}

// UploadPhoto processes and stores one toy photo; owner only
func (s *Service) UploadPhoto(ctx context.Context, callerID, toyID uuid.UUID, file io.Reader) (*Photo, error) {
	toy, err := s.repo.GetByID(ctx, toyID)
	if err != nil {
		return nil, err
	}
	if toy == nil {
		return nil, ErrToyNotFound
	}
	if toy.OwnerID != callerID {
		return nil, ErrNotToyOwner
	}

	existing, err := s.repo.ListPhotos(ctx, toyID)
	if err != nil {
		return nil, err
	}
	if len(existing) >= maxPhotosPerToy {
		return nil, ErrTooManyPhotos
	}

	processed, err := s.processor.Process(file)
	if err != nil {
		return nil, ErrUnsupportedFormat
	}

	photoID := uuid.New()
	ext := "jpg"
	if processed.ContentType == "image/png" {
		ext = "png"
	}
	key := fmt.Sprintf("toys/%s/%s.%s", toyID, photoID, ext)
	thumbKey := fmt.Sprintf("toys/%s/%s_thumb.%s", toyID, photoID, ext)

	if err := s.storage.Put(ctx, key, bytes.NewReader(processed.Original), processed.ContentType); err != nil {
		return nil, err
	}
	if err := s.storage.Put(ctx, thumbKey, bytes.NewReader(processed.Thumbnail), processed.ContentType); err != nil {
		_ = s.storage.Delete(ctx, key)
		return nil, err
	}

	photo := &Photo{
		ID:           photoID,
		ToyID:        toyID,
		URL:          s.storage.GetURL(key),
		ThumbnailURL: s.storage.GetURL(thumbKey),
		Position:     len(existing),
	}

	if err := s.repo.AddPhoto(ctx, photo); err != nil {
		_ = s.storage.Delete(ctx, key)
		_ = s.storage.Delete(ctx, thumbKey)
		return nil, err
	}

	return photo, nil
}

func applyOptionalFields(toy *Toy, ageMin, ageMax *int, dailyRate *float64) {
	toy.AgeMin = sql.NullInt32{}
	if ageMin != nil {
		toy.AgeMin = sql.NullInt32{Int32: int32(*ageMin), Valid: true}
	}
	toy.AgeMax = sql.NullInt32{}
	if ageMax != nil {
		toy.AgeMax = sql.NullInt32{Int32: int32(*ageMax), Valid: true}
	}
	toy.DailyRate = sql.NullFloat64{}
	if dailyRate != nil {
		toy.DailyRate = sql.NullFloat64{Float64: *dailyRate, Valid: true}
	}
}
