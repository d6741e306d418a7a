package toy

import "errors"

var (
	ErrToyNotFound       = errors.New("toy not found")
	ErrNotToyOwner       = errors.New("you can only edit your own toys")
	ErrToyBorrowed       = errors.New("toy is currently borrowed")
	ErrInvalidCategory   = errors.New("category does not exist")
	ErrTooManyPhotos     = errors.New("photo limit reached for this toy")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)
