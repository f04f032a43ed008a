package ports

import "context"

// BlobStore keeps the raw workbook bytes for idempotent retry.
// Paths are opaque to callers.
type BlobStore interface {
	Store(ctx context.Context, data []byte) (string, error)
	Load(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
}
