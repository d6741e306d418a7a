package storage

import (
	"context"
	"io"
)

// Storage is the minimal interface photo persistence needs from a backend:
// put a file, delete a file, resolve its public URL.
type Storage interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	GetURL(key string) string
}

// Config holds backend settings for S3-compatible storage
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}
