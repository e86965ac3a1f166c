package mirror

import "context"

// Mirror keeps a secondary copy of published posts, so site generators can
// consume content without talking to the database. Failures here must not
// roll back the primary store; callers log and move on.
type Mirror interface {
	// Publish writes the canonical JSON document for the slug.
	Publish(ctx context.Context, slug string, doc []byte, subject string) error

	// Remove drops the mirrored document for the slug.
	Remove(ctx context.Context, slug string, subject string) error
}
