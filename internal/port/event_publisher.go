package port

import "context"

type EventPublisher interface {
	// Publish sends event under key. Implementations must not retain event after returning.
	Publish(ctx context.Context, key string, event any) error

	Close() error
}
