package state

import "context"

// Store persists opaque snapshot documents under a key.
// Load returns a NOT_FOUND error (errors.IsNotFound) when nothing is stored.
type Store interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}
