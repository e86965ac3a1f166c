package media

import (
	"context"
	"io"
)

// Store holds uploaded media blobs keyed by their content digest. Blobs are
// served back through the media endpoint, so keys never appear in public URLs
// other than ours.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}
