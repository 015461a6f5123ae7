package port

import "context"

type KVStore interface {
	// Load returns the blob stored under key. found is false when the key has never been written.
	Load(ctx context.Context, key string) (data []byte, found bool, err error)

	// Store overwrites the blob under key
	Store(ctx context.Context, key string, data []byte) error

	// Ping reports whether the backend is reachable
	Ping(ctx context.Context) error

	Close() error
}
