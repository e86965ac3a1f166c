package mirror

import "context"

// NoopMirror is used when no mirror strategy is configured.
type NoopMirror struct{}

func (nm *NoopMirror) Publish(ctx context.Context, slug string, doc []byte, subject string) error {
	return nil
}

func (nm *NoopMirror) Remove(ctx context.Context, slug string, subject string) error {
	return nil
}
