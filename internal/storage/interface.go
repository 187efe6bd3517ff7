package storage

import (
	"context"
	"io"
)

// Storage holds opaque signature and assessment attachments. The workflow
// never inspects file bytes; it carries the returned key as a reference.
// Keys are content-addressed so re-uploading the same artifact is idempotent.
type Storage interface {
	// Save stores the content and returns its content-addressed key.
	Save(ctx context.Context, reader io.Reader, contentType string) (string, error)

	// Open returns the content for a previously stored key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if a key is present and returns the stored size.
	Exists(ctx context.Context, key string) (bool, int64, error)

	// Delete removes the stored content.
	Delete(ctx context.Context, key string) error
}
