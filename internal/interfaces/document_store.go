package interfaces

import "context"

// DocumentStore persists a single opaque document under a fixed key.
// Load returns nil bytes when nothing has been saved yet.
type DocumentStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte) error
}
