package media

import (
	"context"
	"fmt"
	"io"
	"log"
)

// NoopMediaStore accepts and discards uploads. Useful for sites that only
// publish text posts but still want the media endpoint advertised.
type NoopMediaStore struct{}

func (ms *NoopMediaStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	log.Printf("Received no-op media upload request - discarding %d bytes for key %s (%s)", size, key, contentType)

	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}

	return nil
}

func (ms *NoopMediaStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("media storage is not configured")
}

func (ms *NoopMediaStore) Remove(ctx context.Context, key string) error {
	log.Printf("Received no-op media delete request for key %s", key)
	return nil
}
