package toy

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toybox/toybox-api/internal/domain/user"
	"github.com/toybox/toybox-api/internal/pkg/imaging"
)

type memRepo struct {
	toys   map[uuid.UUID]*Toy
	photos map[uuid.UUID][]*Photo
}

func newMemRepo() *memRepo {
	return &memRepo{toys: map[uuid.UUID]*Toy{}, photos: map[uuid.UUID][]*Photo{}}
}

func (r *memRepo) Create(_ context.Context, toy *Toy) error {
	stored := *toy
	r.toys[toy.ID] = &stored
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Toy, error) {
	toy, ok := r.toys[id]
	if !ok || !toy.IsActive {
		return nil, nil
	}
	copied := *toy
	return &copied, nil
}

func (r *memRepo) Update(_ context.Context, toy *Toy) error {
	stored := *toy
	r.toys[toy.ID] = &stored
	return nil
}

func (r *memRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.toys[id].IsActive = false
	return nil
}

func (r *memRepo) List(_ context.Context, _ *Filter, _ SortBy, _ *Pagination) ([]*Toy, int, error) {
	var result []*Toy
	for _, t := range r.toys {
		if t.IsActive {
			copied := *t
			result = append(result, &copied)
		}
	}
	return result, len(result), nil
}

func (r *memRepo) IncrementViewCount(_ context.Context, id uuid.UUID) error {
	r.toys[id].ViewCount++
	return nil
}

func (r *memRepo) GetByIDForUpdateTx(ctx context.Context, _ *sqlx.Tx, id uuid.UUID) (*Toy, error) {
	toy, ok := r.toys[id]
	if !ok {
		return nil, nil
	}
	copied := *toy
	return &copied, nil
}

func (r *memRepo) UpdateStatusTx(_ context.Context, _ *sqlx.Tx, id uuid.UUID, status Status) error {
	r.toys[id].Status = status
	return nil
}

func (r *memRepo) AddPhoto(_ context.Context, photo *Photo) error {
	r.photos[photo.ToyID] = append(r.photos[photo.ToyID], photo)
	return nil
}

func (r *memRepo) ListPhotos(_ context.Context, toyID uuid.UUID) ([]*Photo, error) {
	return r.photos[toyID], nil
}

func (r *memRepo) DeletePhoto(_ context.Context, toyID, photoID uuid.UUID) error {
	photos := r.photos[toyID]
	for i, p := range photos {
		if p.ID == photoID {
			r.photos[toyID] = append(photos[:i], photos[i+1:]...)
			return nil
		}
	}
	return nil
}

type memUserRepo struct {
	listed map[uuid.UUID]int
}

func (r *memUserRepo) Create(context.Context, *user.User) error        { return nil }
func (r *memUserRepo) GetByID(context.Context, uuid.UUID) (*user.User, error) {
	return nil, nil
}
func (r *memUserRepo) GetByEmail(context.Context, string) (*user.User, error) { return nil, nil }
func (r *memUserRepo) UpdateProfile(context.Context, *user.User) error        { return nil }
func (r *memUserRepo) UpdatePassword(context.Context, uuid.UUID, string) error {
	return nil
}
func (r *memUserRepo) IncrementToysListed(_ context.Context, id uuid.UUID, delta int) error {
	r.listed[id] += delta
	return nil
}
func (r *memUserRepo) IncrementToysBorrowedTx(context.Context, *sqlx.Tx, uuid.UUID) error {
	return nil
}

type memStorage struct {
	objects map[string][]byte
}

func (s *memStorage) Put(_ context.Context, key string, body io.Reader, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *memStorage) GetURL(key string) string {
	return "/static/" + key
}

func newToyService() (*Service, *memRepo, *memUserRepo, *memStorage) {
	repo := newMemRepo()
	users := &memUserRepo{listed: map[uuid.UUID]int{}}
	store := &memStorage{objects: map[string][]byte{}}
	service := NewService(repo, users, store, imaging.NewProcessor(imaging.DefaultConfig()))
	return service, repo, users, store
}

func validCreateReq() *CreateToyRequest {
	return &CreateToyRequest{
		Name:        "Wooden train set",
		Description: "A 40-piece wooden railway with two engines.",
		Condition:   "good",
		City:        "Hanoi",
	}
}

func TestCreateToy(t *testing.T) {
	service, _, users, _ := newToyService()
	ownerID := uuid.New()

	toy, err := service.Create(context.Background(), ownerID, validCreateReq())
	require.NoError(t, err)

	assert.Equal(t, ownerID, toy.OwnerID)
	assert.Equal(t, StatusAvailable, toy.Status)
	assert.True(t, toy.IsActive)
	assert.Equal(t, 1, users.listed[ownerID])
}

func TestCreateToyBadCategory(t *testing.T) {
	service, _, _, _ := newToyService()

	req := validCreateReq()
	req.CategoryID = "not-a-uuid"

	_, err := service.Create(context.Background(), uuid.New(), req)
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestGetCountsViews(t *testing.T) {
	service, repo, _, _ := newToyService()

	toy, err := service.Create(context.Background(), uuid.New(), validCreateReq())
	require.NoError(t, err)

	_, err = service.Get(context.Background(), toy.ID, true)
	require.NoError(t, err)
	_, err = service.Get(context.Background(), toy.ID, false)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.toys[toy.ID].ViewCount)
}

func TestUpdateToyOwnerOnly(t *testing.T) {
	service, _, _, _ := newToyService()
	ownerID := uuid.New()

	toy, err := service.Create(context.Background(), ownerID, validCreateReq())
	require.NoError(t, err)

	req := &UpdateToyRequest{
		Name:        "Wooden train set XL",
		Description: "A 60-piece wooden railway with three engines.",
		Condition:   "like_new",
	}

	_, err = service.Update(context.Background(), uuid.New(), toy.ID, req)
	assert.ErrorIs(t, err, ErrNotToyOwner)

	updated, err := service.Update(context.Background(), ownerID, toy.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Wooden train set XL", updated.Name)
	assert.Equal(t, ConditionLikeNew, updated.Condition)
}

func TestDeleteToy(t *testing.T) {
	service, repo, users, _ := newToyService()
	ownerID := uuid.New()

	toy, err := service.Create(context.Background(), ownerID, validCreateReq())
	require.NoError(t, err)

	err = service.Delete(context.Background(), ownerID, toy.ID)
	require.NoError(t, err)

	assert.False(t, repo.toys[toy.ID].IsActive)
	assert.Equal(t, 0, users.listed[ownerID])

	err = service.Delete(context.Background(), ownerID, toy.ID)
	assert.ErrorIs(t, err, ErrToyNotFound)
}

func TestDeleteToyWhileBorrowed(t *testing.T) {
	service, repo, _, _ := newToyService()
	ownerID := uuid.New()

	toy, err := service.Create(context.Background(), ownerID, validCreateReq())
	require.NoError(t, err)
	repo.toys[toy.ID].Status = StatusBorrowed

	err = service.Delete(context.Background(), ownerID, toy.ID)
	assert.ErrorIs(t, err, ErrToyBorrowed)
}

func testPNG(t *testing.T) io.Reader {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestUploadPhoto(t *testing.T) {
	service, repo, _, store := newToyService()
	ownerID := uuid.New()

	toy, err := service.Create(context.Background(), ownerID, validCreateReq())
	require.NoError(t, err)

	photo, err := service.UploadPhoto(context.Background(), ownerID, toy.ID, testPNG(t))
	require.NoError(t, err)

	assert.Len(t, repo.photos[toy.ID], 1)
	assert.Len(t, store.objects, 2)
	assert.NotEmpty(t, photo.URL)
	assert.NotEmpty(t, photo.ThumbnailURL)
}

func TestUploadPhotoLimit(t *testing.T) {
	service, repo, _, _ := newToyService()
	ownerID := uuid.New()

	toy, err := service.Create(context.Background(), ownerID, validCreateReq())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		repo.photos[toy.ID] = append(repo.photos[toy.ID], &Photo{ID: uuid.New(), ToyID: toy.ID})
	}

	_, err = service.UploadPhoto(context.Background(), ownerID, toy.ID, testPNG(t))
	assert.ErrorIs(t, err, ErrTooManyPhotos)
}

func TestUploadPhotoBadFormat(t *testing.T) {
	service, _, _, _ := newToyService()
	ownerID := uuid.New()

	toy, err := service.Create(context.Background(), ownerID, validCreateReq())
	require.NoError(t, err)

	_, err = service.UploadPhoto(context.Background(), ownerID, toy.ID, bytes.NewReader([]byte("not an image")))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
