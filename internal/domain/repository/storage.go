package repository

import (
	"context"
	"io"
)

// ObjectStorage defines the interface for archiving finished renditions
// to object storage (e.g. MinIO, S3).
type ObjectStorage interface {
	// Upload stores an object under key with the given content type.
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Exists checks whether an object is already stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}
