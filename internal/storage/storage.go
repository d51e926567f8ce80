package storage

import (
	"context"
	"time"
)

// DefaultPresignedURLExpiry bounds how long upload/download URLs stay valid.
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage abstracts object storage for media files (exercise images and
// videos, profile pictures). Clients upload directly via presigned URLs; the
// API never proxies file bytes.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL accepting a PUT of
	// the object. The uploader must send the same Content-Type the URL was
	// signed with.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL accepting a GET
	// of the object.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the backing bucket.
	DeleteObject(ctx context.Context, objectKey string) error
}
